// Package identity is the wire contract of the remote identity service.
//
// Requests and responses are google.protobuf.Struct messages, so the
// payloads stay JSON-shaped:
//
//	SignUp         {email, password, first_name, last_name} -> {user, token}
//	SignIn         {email, password}                        -> {user, token}
//	SignOut        {token}                                  -> {}
//	ValidateToken  {token}                                  -> {user}
//
// where user is {id, email, first_name?, last_name?, bio?}. Failures are
// gRPC status errors.
package identity

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "gophwalk.identity.v1.IdentityService"

const (
	MethodSignUp        = "/" + ServiceName + "/SignUp"
	MethodSignIn        = "/" + ServiceName + "/SignIn"
	MethodSignOut       = "/" + ServiceName + "/SignOut"
	MethodValidateToken = "/" + ServiceName + "/ValidateToken"
)

// Server is implemented by the identity backend.
type Server interface {
	SignUp(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SignOut(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterServer attaches srv to a gRPC server.
func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&serviceDesc, srv)
}

type call func(srv Server, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, fn call) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(Server), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(srv.(Server), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unaryHandler(MethodSignUp, Server.SignUp)},
		{MethodName: "SignIn", Handler: unaryHandler(MethodSignIn, Server.SignIn)},
		{MethodName: "SignOut", Handler: unaryHandler(MethodSignOut, Server.SignOut)},
		{MethodName: "ValidateToken", Handler: unaryHandler(MethodValidateToken, Server.ValidateToken)},
	},
	Metadata: "gophwalk/identity/v1",
}
