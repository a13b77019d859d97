// Package common contains shared constants and sentinel errors used across
// gophwalk components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// SaltSize is the number of random bytes used when deriving password verifiers.
const SaltSize = 32

// LocalTokenPrefix marks tokens minted by the on-device identity fallback.
// Such tokens are never sent to the remote identity service.
const LocalTokenPrefix = "local-"
