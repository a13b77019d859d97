package cli

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/gophwalk/internal/client/cache"
	"github.com/dmitrijs2005/gophwalk/internal/client/client"
	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{common.ErrDuplicateEmail, "An account with this email already exists."},
		{&client.RejectedError{HTTPStatus: http.StatusConflict, Message: "taken"}, "An account with this email already exists."},
		{fmt.Errorf("sign in: %w", common.ErrInvalidCredentials), "Wrong email or password."},
		{common.ErrNotFound, "No account found for this email."},
		{common.ErrSuperseded, "Another session change finished first. Please try again."},
		{fmt.Errorf("%w: dial", client.ErrUnreachable), "The server could not be reached. Please try again later."},
		{&client.RejectedError{HTTPStatus: http.StatusForbidden, Message: "banned"}, "The server refused the request: banned"},
		{cache.ErrNoLiveOwner, "Sign in or start a guest session first."},
		{errors.New("disk on fire"), "Something went wrong: disk on fire"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, userMessage(tt.err))
	}

	assert.Contains(t, userMessage(cache.ErrUnknownDataKind), "city-state")
}
