package roster

import "crypto/subtle"

// AdminGate decides whether a submitted secret grants entry to the
// administrative operations. It is policy enforced by the orchestrating
// caller - the store itself has no notion of admin mode. The interface
// exists so the single-shared-secret scheme can be swapped for
// per-operator credentials or throttled checks without touching the
// store or the authentication path.
type AdminGate interface {
	Authorize(secret string) bool
}

// SharedSecretGate is the reference AdminGate: one shared secret, the
// fallback administrative credential. Comparison is constant time.
type SharedSecretGate struct {
	secret string
}

// NewSharedSecretGate creates a gate around the given shared secret.
func NewSharedSecretGate(secret string) *SharedSecretGate {
	return &SharedSecretGate{secret: secret}
}

// Authorize reports whether the submitted secret matches.
func (g *SharedSecretGate) Authorize(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(g.secret), []byte(secret)) == 1
}
