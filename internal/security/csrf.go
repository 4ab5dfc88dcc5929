package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// CSRFHeader carries the token on state-changing API calls
const CSRFHeader = "X-CSRF-Token"

// CSRF derives per-session tokens with HMAC-SHA256, so any replica sharing the secret can verify them
type CSRF struct {
	secret []byte
}

func NewCSRF(secret string) *CSRF {
	return &CSRF{secret: []byte(secret)}
}

// Token returns the token for sessionID, or "" without a session
func (c *CSRF) Token(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Valid reports whether token belongs to sessionID
func (c *CSRF) Valid(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	return hmac.Equal([]byte(c.Token(sessionID)), []byte(token))
}

// TokenFromRequest reads the token header
func TokenFromRequest(r *http.Request) string {
	return r.Header.Get(CSRFHeader)
}
