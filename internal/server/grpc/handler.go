package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/dmitrijs2005/gophwalk/internal/rpc/identity"
	"github.com/dmitrijs2005/gophwalk/internal/server/models"
	"github.com/dmitrijs2005/gophwalk/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// UserService is the part of services.UserService the handlers need.
type UserService interface {
	SignUp(ctx context.Context, email string, password []byte, first, last string) (*services.Session, error)
	SignIn(ctx context.Context, email string, password []byte) (*services.Session, error)
	SignOut(ctx context.Context, token string) error
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

func (s *GRPCServer) SignUp(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := identity.DecodeCredentials(req)
	if err != nil {
		return nil, toStatus(err)
	}

	sess, err := s.users.SignUp(ctx, c.Email, []byte(c.Password), c.FirstName, c.LastName)
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "user_id", sess.User.ID)
	return encodeSession(sess.User, sess.Token)
}

func (s *GRPCServer) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := identity.DecodeCredentials(req)
	if err != nil {
		return nil, toStatus(err)
	}

	sess, err := s.users.SignIn(ctx, c.Email, []byte(c.Password))
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeSession(sess.User, sess.Token)
}

func (s *GRPCServer) SignOut(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := identity.DecodeToken(req)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.users.SignOut(ctx, token); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := identity.DecodeToken(req)
	if err != nil {
		return nil, toStatus(err)
	}
	user, err := s.users.ValidateToken(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeSession(user, "")
}

func encodeSession(u *models.User, token string) (*structpb.Struct, error) {
	resp, err := identity.EncodeAuthResult(identity.AuthResult{
		User: identity.User{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Bio:       u.Bio,
		},
		Token: token,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return resp, nil
}

// toStatus maps service errors onto gRPC codes. Unexpected errors are not
// echoed to the caller.
func toStatus(err error) error {
	switch {
	case errors.Is(err, identity.ErrMalformedPayload):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, "email already registered")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenRevoked):
		return status.Error(codes.Unauthenticated, "invalid token")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
