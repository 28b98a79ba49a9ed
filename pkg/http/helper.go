package http

import (
	"net/http"
	"strconv"

	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
)

// QueryBool reads an optional boolean query flag. Absent means false.
func QueryBool(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, nil
}
