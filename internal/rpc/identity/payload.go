package identity

import (
	"errors"

	"google.golang.org/protobuf/types/known/structpb"
)

// ErrMalformedPayload is returned when a message lacks required fields.
var ErrMalformedPayload = errors.New("malformed identity payload")

type Credentials struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Bio       *string
}

type AuthResult struct {
	User  User
	Token string
}

func EncodeCredentials(c Credentials) (*structpb.Struct, error) {
	fields := map[string]any{
		"email":    c.Email,
		"password": c.Password,
	}
	if c.FirstName != "" {
		fields["first_name"] = c.FirstName
	}
	if c.LastName != "" {
		fields["last_name"] = c.LastName
	}
	return structpb.NewStruct(fields)
}

func DecodeCredentials(s *structpb.Struct) (Credentials, error) {
	c := Credentials{
		Email:     stringField(s, "email"),
		Password:  stringField(s, "password"),
		FirstName: stringField(s, "first_name"),
		LastName:  stringField(s, "last_name"),
	}
	if c.Email == "" || c.Password == "" {
		return Credentials{}, ErrMalformedPayload
	}
	return c, nil
}

func EncodeToken(token string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"token": token})
}

func DecodeToken(s *structpb.Struct) (string, error) {
	token := stringField(s, "token")
	if token == "" {
		return "", ErrMalformedPayload
	}
	return token, nil
}

// EncodeAuthResult builds {user, token}; an empty token is omitted, which is
// the shape of a ValidateToken response.
func EncodeAuthResult(r AuthResult) (*structpb.Struct, error) {
	fields := map[string]any{"user": userFields(r.User)}
	if r.Token != "" {
		fields["token"] = r.Token
	}
	return structpb.NewStruct(fields)
}

func DecodeAuthResult(s *structpb.Struct) (AuthResult, error) {
	if s == nil {
		return AuthResult{}, ErrMalformedPayload
	}
	userValue, ok := s.GetFields()["user"]
	if !ok || userValue.GetStructValue() == nil {
		return AuthResult{}, ErrMalformedPayload
	}
	u := userValue.GetStructValue()

	user := User{
		ID:        stringField(u, "id"),
		Email:     stringField(u, "email"),
		FirstName: stringField(u, "first_name"),
		LastName:  stringField(u, "last_name"),
	}
	if bio, ok := u.GetFields()["bio"]; ok {
		if _, isString := bio.GetKind().(*structpb.Value_StringValue); isString {
			v := bio.GetStringValue()
			user.Bio = &v
		}
	}
	if user.ID == "" || user.Email == "" {
		return AuthResult{}, ErrMalformedPayload
	}
	return AuthResult{User: user, Token: stringField(s, "token")}, nil
}

func userFields(u User) map[string]any {
	fields := map[string]any{
		"id":    u.ID,
		"email": u.Email,
	}
	if u.FirstName != "" {
		fields["first_name"] = u.FirstName
	}
	if u.LastName != "" {
		fields["last_name"] = u.LastName
	}
	if u.Bio != nil {
		fields["bio"] = *u.Bio
	}
	return fields
}

func stringField(s *structpb.Struct, name string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[name].GetStringValue()
}
