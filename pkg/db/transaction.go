// Package db holds the store-agnostic transaction contract shared by the
// Mongo, Postgres and in-memory backends.
package db

import "context"

// TransactionFunc runs inside a transaction. Repositories called with the
// ctx it receives take part in that transaction.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
