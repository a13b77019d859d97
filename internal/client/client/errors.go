package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophwalk/internal/common"
)

// ErrUnreachable reports that the identity service could not be reached in
// time. It is the only failure that allows falling back to local identities.
var ErrUnreachable = errors.New("identity service unreachable")

// RejectedError is an explicit refusal from the identity service.
type RejectedError struct {
	HTTPStatus int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity service rejected request: %d %s", e.HTTPStatus, http.StatusText(e.HTTPStatus))
	}
	return fmt.Sprintf("identity service rejected request: %d %s", e.HTTPStatus, e.Message)
}

// Unwrap exposes the sentinel matching the status, so callers can use
// errors.Is(err, common.ErrDuplicateEmail) and friends.
func (e *RejectedError) Unwrap() error {
	switch e.HTTPStatus {
	case http.StatusConflict:
		return common.ErrDuplicateEmail
	case http.StatusUnauthorized:
		return common.ErrInvalidCredentials
	case http.StatusNotFound:
		return common.ErrNotFound
	default:
		return nil
	}
}
