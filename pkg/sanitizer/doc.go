// Package sanitizer normalizes identity input before validation and storage.
//
// All functions are idempotent: applying them twice gives the same result.
// Invalid input is never an error here; validation happens afterwards.
//
// Normalization includes:
//   - Emails: trimmed and lower-cased
//   - Names: whitespace collapsed and trimmed
//   - Intern IDs: whitespace removed at the edges and upper-cased
//   - Slices: duplicates and empty values dropped after normalization
package sanitizer
