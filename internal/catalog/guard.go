package catalog

import (
	"crypto/subtle"
	"strings"
)

// AdminGuard authorizes catalog mutations against the configured shared secret.
type AdminGuard struct {
	secret []byte
}

// NewAdminGuard builds a guard for secret. A blank secret authorizes nothing.
func NewAdminGuard(secret string) AdminGuard {
	return AdminGuard{secret: []byte(strings.TrimSpace(secret))}
}

// Authorized compares candidate to the secret in constant time.
func (g AdminGuard) Authorized(candidate string) bool {
	if len(g.secret) == 0 || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare(g.secret, []byte(candidate)) == 1
}
