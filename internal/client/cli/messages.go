package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophwalk/internal/client/cache"
	"github.com/dmitrijs2005/gophwalk/internal/client/client"
	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/common"
)

// userMessage renders err as the single line shown to the user.
func userMessage(err error) string {
	var rejected *client.RejectedError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrDuplicateEmail):
		return "An account with this email already exists."
	case errors.Is(err, common.ErrInvalidCredentials):
		return "Wrong email or password."
	case errors.Is(err, common.ErrNotFound):
		return "No account found for this email."
	case errors.Is(err, common.ErrInvalidTransition):
		return "That is not available in the current session."
	case errors.Is(err, common.ErrSuperseded):
		return "Another session change finished first. Please try again."
	case errors.Is(err, client.ErrUnreachable):
		return "The server could not be reached. Please try again later."
	case errors.As(err, &rejected):
		return "The server refused the request: " + rejected.Message
	case errors.Is(err, cache.ErrNoLiveOwner):
		return "Sign in or start a guest session first."
	case errors.Is(err, cache.ErrUnknownDataKind):
		return "Unknown data kind. Known kinds: " + knownKinds() + "."
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}

func knownKinds() string {
	names := make([]string, 0, len(models.AllDataKinds))
	for _, k := range models.AllDataKinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}
