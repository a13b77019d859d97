// Package services contains the identity server business logic.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/dmitrijs2005/gophwalk/internal/cryptox"
	"github.com/dmitrijs2005/gophwalk/internal/dbx"
	"github.com/dmitrijs2005/gophwalk/internal/server/auth"
	"github.com/dmitrijs2005/gophwalk/internal/server/config"
	"github.com/dmitrijs2005/gophwalk/internal/server/models"
	"github.com/dmitrijs2005/gophwalk/internal/server/repositories/repomanager"
)

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	User  *models.User
	Token string
}

// UserService registers accounts and issues, validates and revokes tokens.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte
	validity    time.Duration
	now         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		jwtSecret:   []byte(cfg.SecretKey),
		validity:    cfg.TokenValidityDuration,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account and signs it in. A taken email yields
// common.ErrDuplicateEmail.
func (s *UserService) SignUp(ctx context.Context, email string, password []byte, first, last string) (*Session, error) {
	cred := cryptox.NewCredential(password)
	user := &models.User{
		Email:     normalizeEmail(email),
		FirstName: first,
		LastName:  last,
		Salt:      cred.Salt,
		Verifier:  cred.Verifier,
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

// SignIn checks the password. An unknown email and a wrong password both
// yield common.ErrInvalidCredentials.
func (s *UserService) SignIn(ctx context.Context, email string, password []byte) (*Session, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	cred := cryptox.Credential{Salt: user.Salt, Verifier: user.Verifier}
	if !cred.Matches(password) {
		return nil, common.ErrInvalidCredentials
	}

	return s.issue(user)
}

// SignOut revokes the token until it expires. Revocations that are no longer
// needed are dropped in the same transaction.
func (s *UserService) SignOut(ctx context.Context, token string) error {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RevokedTokens(tx)
		if _, err := repo.DeleteExpired(ctx, s.now()); err != nil {
			return err
		}
		return repo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	})
}

// ValidateToken returns the token's user when the token is well signed and
// unexpired, has not been revoked, and its user still exists.
func (s *UserService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	revoked, err := s.repomanager.RevokedTokens(s.db).IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) issue(user *models.User) (*Session, error) {
	token, _, err := auth.GenerateToken(user.ID, s.jwtSecret, s.validity, s.now())
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{User: user, Token: token}, nil
}
