package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/rpc/identity"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	DefaultDataTimeout    = 60 * time.Second
	DefaultPayloadTimeout = 120 * time.Second
)

type GRPCClient struct {
	endpointURL    string
	conn           *grpc.ClientConn
	dataTimeout    time.Duration
	payloadTimeout time.Duration
	dialOptions    []grpc.DialOption
}

type Option func(*GRPCClient)

// WithTimeouts overrides the per-call deadlines. Zero values keep the defaults.
func WithTimeouts(data, payload time.Duration) Option {
	return func(c *GRPCClient) {
		if data > 0 {
			c.dataTimeout = data
		}
		if payload > 0 {
			c.payloadTimeout = payload
		}
	}
}

// WithDialOptions appends extra dial options, e.g. a custom dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) {
		c.dialOptions = append(c.dialOptions, opts...)
	}
}

func NewGRPCClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL:    endpointURL,
		dataTimeout:    DefaultDataTimeout,
		payloadTimeout: DefaultPayloadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, c.dialOptions...)

	conn, err := grpc.NewClient(c.endpointURL, dial...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) SignUp(ctx context.Context, email string, password []byte, firstName, lastName string) (*AuthResult, error) {
	req, err := identity.EncodeCredentials(identity.Credentials{
		Email:     email,
		Password:  string(password),
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.invoke(ctx, identity.MethodSignUp, c.payloadTimeout, req)
	if err != nil {
		return nil, err
	}
	return decodeAuthResult(resp)
}

func (c *GRPCClient) SignIn(ctx context.Context, email string, password []byte) (*AuthResult, error) {
	req, err := identity.EncodeCredentials(identity.Credentials{Email: email, Password: string(password)})
	if err != nil {
		return nil, err
	}

	resp, err := c.invoke(ctx, identity.MethodSignIn, c.dataTimeout, req)
	if err != nil {
		return nil, err
	}
	return decodeAuthResult(resp)
}

func (c *GRPCClient) SignOut(ctx context.Context, token string) error {
	req, err := identity.EncodeToken(token)
	if err != nil {
		return err
	}

	_, err = c.invoke(ctx, identity.MethodSignOut, c.dataTimeout, req)
	return err
}

func (c *GRPCClient) ValidateToken(ctx context.Context, token string) (*models.Identity, error) {
	req, err := identity.EncodeToken(token)
	if err != nil {
		return nil, err
	}

	resp, err := c.invoke(ctx, identity.MethodValidateToken, c.dataTimeout, req)
	if err != nil {
		return nil, err
	}

	res, err := decodeAuthResult(resp)
	if err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (c *GRPCClient) invoke(ctx context.Context, method string, timeout time.Duration, req *structpb.Struct) (*structpb.Struct, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, method, req, resp); err != nil {
		return nil, c.mapError(ctx, err)
	}
	return resp, nil
}

// mapError translates a gRPC failure. ctx is the caller's context, so a
// cancellation by the caller is not mistaken for an unreachable service.
func (c *GRPCClient) mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", ErrUnreachable, st.Message())
	default:
		return &RejectedError{HTTPStatus: httpStatus(st.Code()), Message: st.Message()}
	}
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errMalformedResponse = errors.New("malformed identity service response")

func decodeAuthResult(resp *structpb.Struct) (*AuthResult, error) {
	res, err := identity.DecodeAuthResult(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedResponse, err)
	}

	return &AuthResult{
		User: models.Identity{
			ID:        res.User.ID,
			Email:     res.User.Email,
			FirstName: res.User.FirstName,
			LastName:  res.User.LastName,
			Bio:       res.User.Bio,
		},
		Token: res.Token,
	}, nil
}
