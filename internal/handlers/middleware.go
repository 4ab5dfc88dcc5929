package handlers

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	SessionContextKey  ContextKey = "session"
	AdminCredentialKey ContextKey = "admin_credential"
	PlayerContextKey   ContextKey = "player"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	csrf      *security.CSRF
	limiter   *security.RateLimiter
	tokens    *security.TokenIssuer
	adminHash string
}

// NewMiddleware creates a new middleware instance. An empty adminHash disables the admin API.
func NewMiddleware(csrf *security.CSRF, limiter *security.RateLimiter, tokens *security.TokenIssuer, adminHash string) *Middleware {
	return &Middleware{
		csrf:      csrf,
		limiter:   limiter,
		tokens:    tokens,
		adminHash: adminHash,
	}
}

// RequireSession puts the game session ID from the cookie into the request context
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(security.SessionCookieName)
		if err != nil || cookie.Value == "" {
			respondWithJSONError(w, http.StatusUnauthorized, ErrNoSession, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, cookie.Value)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect requires the session's token header. It must run inside RequireSession.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.csrf.Valid(GetSessionID(r.Context()), security.TokenFromRequest(r)) {
			respondWithJSONError(w, http.StatusForbidden, ErrInvalidCSRF, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit rejects clients exceeding the configured request rate
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("Rate limit exceeded")
			respondWithJSONError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// RequireAdmin checks the HTTP Basic password against the configured bcrypt hash
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.adminHash == "" {
			respondWithJSONError(w, http.StatusNotFound, "Admin API is disabled", "", nil)
			return
		}

		_, password, ok := r.BasicAuth()
		if !ok || !security.CheckPassword(m.adminHash, password) {
			log.Warn().Str("ip", security.GetClientIP(r)).Msg("Rejected admin credential")
			w.Header().Set("WWW-Authenticate", `Basic realm="hangman-admin"`)
			respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), AdminCredentialKey, password)
		next(w, r.WithContext(ctx))
	}
}

// RequirePlayerToken validates the player token from X-Player-Token or a Bearer header
func (m *Middleware) RequirePlayerToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.tokens.Parse(playerToken(r))
		if err != nil {
			respondWithJSONError(w, http.StatusUnauthorized, "Invalid or missing player token", "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), PlayerContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func playerToken(r *http.Request) string {
	if t := r.Header.Get("X-Player-Token"); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// Hijack lets websocket upgrades pass through the logger
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	sr.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// GetSessionID retrieves the game session ID from the request context
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(SessionContextKey).(string)
	return id
}

// GetAdminCredential returns the admin password accepted by RequireAdmin
func GetAdminCredential(ctx context.Context) string {
	cred, _ := ctx.Value(AdminCredentialKey).(string)
	return cred
}

// GetPlayer returns the claims accepted by RequirePlayerToken
func GetPlayer(ctx context.Context) *security.PlayerClaims {
	claims, _ := ctx.Value(PlayerContextKey).(*security.PlayerClaims)
	return claims
}
