package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hangmantrainer/internal/publisher"
	"hangmantrainer/internal/repository"
	"hangmantrainer/internal/results"
	"hangmantrainer/internal/security"
	"hangmantrainer/internal/service"
	"hangmantrainer/internal/wordbank"
)

type memoryBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, repository.ErrBlobNotFound
	}
	return v, nil
}

func (m *memoryBlobs) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

const testAdminPassword = "correct horse"

type testServer struct {
	handler http.Handler
	tokens  *security.TokenIssuer
	games   *service.GameService
	pub     *publisher.Publisher
}

type serverOptions struct {
	adminHash string
	rps       int
	burst     int
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	ctx := context.Background()
	blobs := &memoryBlobs{data: make(map[string][]byte)}

	bank, err := wordbank.NewBank(ctx, blobs)
	if err != nil {
		t.Fatalf("NewBank() error = %v", err)
	}
	store, err := results.NewStore(ctx, blobs)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if opts.rps == 0 {
		opts.rps, opts.burst = 100, 100
	}
	limiter := security.NewRateLimiter(opts.rps, opts.burst)
	t.Cleanup(limiter.Stop)

	pub := publisher.New(time.Second, nil)
	tokens := security.NewTokenIssuer("test-secret", time.Hour)
	csrf := security.NewCSRF("csrf-secret")
	games := service.NewGameService(bank, nil, store, pub, tokens, time.Hour)
	admin := service.NewAdminService(bank, nil, store)

	m := NewMiddleware(csrf, limiter, tokens, opts.adminHash)
	mux := http.NewServeMux()
	RegisterRoutes(mux, m,
		NewGameHandler(games, csrf),
		NewEventsHandler(games),
		NewWordsHandler(bank),
		NewAdminHandler(admin, nil),
	)

	return &testServer{handler: Logging(mux), tokens: tokens, games: games, pub: pub}
}

// player carries the cookie and CSRF token issued at identity
type player struct {
	cookie *http.Cookie
	csrf   string
	token  string
}

func (ts *testServer) do(t *testing.T, p *player, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if p != nil {
		if p.cookie != nil {
			req.AddCookie(p.cookie)
		}
		if p.csrf != "" {
			req.Header.Set(security.CSRFHeader, p.csrf)
		}
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) identify(t *testing.T, employeeID string) *player {
	t.Helper()
	rec := ts.do(t, nil, http.MethodPost, "/api/session/identity", `{"employeeId":"`+employeeID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("identity status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp identityResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode identity response: %v", err)
	}

	p := &player{csrf: resp.CSRFToken, token: resp.PlayerToken}
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			p.cookie = c
		}
	}
	if p.cookie == nil {
		t.Fatal("identity did not set a session cookie")
	}
	return p
}

func decodeGame(t *testing.T, rec *httptest.ResponseRecorder) gameResponse {
	t.Helper()
	var resp gameResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode game response: %v (body %s)", err, rec.Body.String())
	}
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}
