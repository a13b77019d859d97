// Package models defines client-side data models: identities, the session
// state union and the enumerated per-user data kinds.
package models

import "strings"

// Identity is the public profile of an account. ID and Email never change
// after creation; only the profile fields may be updated.
type Identity struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

// ProfilePatch carries optional profile updates; nil fields are left as is.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Bio       *string
}

// Apply returns a copy of id with the patch applied.
func (p ProfilePatch) Apply(id Identity) Identity {
	if p.FirstName != nil {
		id.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		id.LastName = *p.LastName
	}
	if p.Bio != nil {
		bio := *p.Bio
		id.Bio = &bio
	}
	return id
}

// NormalizeEmail returns the case-insensitive lookup key for an email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
