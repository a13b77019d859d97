package client

import (
	"context"

	"github.com/dmitrijs2005/gophwalk/internal/client/models"
)

// AuthResult is the outcome of a successful sign-up or sign-in.
type AuthResult struct {
	User  models.Identity
	Token string
}

// IdentityClient talks to the remote identity service.
type IdentityClient interface {
	SignUp(ctx context.Context, email string, password []byte, firstName, lastName string) (*AuthResult, error)
	SignIn(ctx context.Context, email string, password []byte) (*AuthResult, error)
	SignOut(ctx context.Context, token string) error
	ValidateToken(ctx context.Context, token string) (*models.Identity, error)
	Close() error
}
