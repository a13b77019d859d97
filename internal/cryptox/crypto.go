// Package cryptox derives and checks password credentials. The same scheme
// is used by the on-device fallback identity store and the reference
// identity server, so a credential is never stored in plain text.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/dmitrijs2005/gophwalk/internal/common"
	"golang.org/x/crypto/argon2"
)

// Credential is what gets persisted for a password: a random salt and a
// verifier derived from it.
type Credential struct {
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

// DeriveMasterKey stretches password with argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier hashes a derived key so the key itself is never stored.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// NewCredential salts and derives a verifier for password.
func NewCredential(password []byte) Credential {
	salt := common.GenerateRandByteArray(common.SaltSize)
	return Credential{Salt: salt, Verifier: MakeVerifier(DeriveMasterKey(password, salt))}
}

// Matches reports whether password produces the stored verifier.
// The comparison is constant time.
func (c Credential) Matches(password []byte) bool {
	if len(c.Salt) == 0 || len(c.Verifier) == 0 {
		return false
	}
	candidate := MakeVerifier(DeriveMasterKey(password, c.Salt))
	return subtle.ConstantTimeCompare(c.Verifier, candidate) == 1
}
