package models

import "time"

// RevokedToken marks a signed-out token id; the row is only needed until the
// token would have expired anyway.
type RevokedToken struct {
	JTI       string
	ExpiresAt time.Time
}
