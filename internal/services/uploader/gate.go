package uploader

import "crypto/subtle"

// Gate checks the caller-supplied shared secret before anything touches the
// upstream API. It has no state and never logs the secret.
type Gate struct {
	secret string
}

func NewGate(secret string) *Gate {
	return &Gate{secret: secret}
}

// Verify reports whether provided is non-empty and matches the configured
// application secret. The comparison is constant time.
func (g *Gate) Verify(provided string) bool {
	if provided == "" || g.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(g.secret)) == 1
}
