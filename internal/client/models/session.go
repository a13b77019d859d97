package models

import "fmt"

// Variant names the active member of the SessionState union.
type Variant string

const (
	VariantUnauthenticated Variant = "unauthenticated"
	VariantGuest           Variant = "guest"
	VariantAuthenticated   Variant = "authenticated"
)

// Origin records which identity backend issued an authenticated session.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

// SessionState is a tagged union: exactly one of Unauthenticated, Guest
// (GuestID set) or Authenticated (User and Token set) is active. Build values
// with the constructors below rather than by hand.
type SessionState struct {
	Variant Variant   `json:"variant"`
	GuestID string    `json:"guest_id,omitempty"`
	User    *Identity `json:"user,omitempty"`
	Token   string    `json:"token,omitempty"`
	Origin  Origin    `json:"origin,omitempty"`
}

func Unauthenticated() SessionState {
	return SessionState{Variant: VariantUnauthenticated}
}

func Guest(guestID string) SessionState {
	return SessionState{Variant: VariantGuest, GuestID: guestID}
}

func Authenticated(user Identity, token string, origin Origin) SessionState {
	return SessionState{Variant: VariantAuthenticated, User: &user, Token: token, Origin: origin}
}

func (s SessionState) IsGuest() bool { return s.Variant == VariantGuest }

func (s SessionState) IsAuthenticated() bool { return s.Variant == VariantAuthenticated }

// UserID returns the authenticated user's id, or "".
func (s SessionState) UserID() string {
	if s.Variant != VariantAuthenticated || s.User == nil {
		return ""
	}
	return s.User.ID
}

// OwnerID returns the id that per-user data is scoped to: the user id when
// authenticated, the guest id in guest mode, "" otherwise.
func (s SessionState) OwnerID() string {
	switch s.Variant {
	case VariantGuest:
		return s.GuestID
	case VariantAuthenticated:
		return s.UserID()
	default:
		return ""
	}
}

// Validate checks that only the fields of the active variant are set.
func (s SessionState) Validate() error {
	switch s.Variant {
	case VariantUnauthenticated:
		if s.GuestID != "" || s.User != nil || s.Token != "" {
			return fmt.Errorf("unauthenticated session carries identity fields")
		}
	case VariantGuest:
		if s.GuestID == "" {
			return fmt.Errorf("guest session without guest id")
		}
		if s.User != nil || s.Token != "" {
			return fmt.Errorf("guest session carries user fields")
		}
	case VariantAuthenticated:
		if s.User == nil || s.User.ID == "" || s.Token == "" {
			return fmt.Errorf("authenticated session without user or token")
		}
		if s.GuestID != "" {
			return fmt.Errorf("authenticated session carries guest id")
		}
		if s.Origin != OriginRemote && s.Origin != OriginLocal {
			return fmt.Errorf("authenticated session with unknown origin %q", s.Origin)
		}
	default:
		return fmt.Errorf("unknown session variant %q", s.Variant)
	}
	return nil
}

func (s SessionState) String() string {
	switch s.Variant {
	case VariantGuest:
		return "guest"
	case VariantAuthenticated:
		if s.User != nil {
			return s.User.Email
		}
	}
	return string(s.Variant)
}
