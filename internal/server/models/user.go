package models

import "time"

// User is a registered account as stored by the identity server.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Bio       *string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}
