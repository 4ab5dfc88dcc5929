package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hangmantrainer/internal/models"
	"hangmantrainer/internal/report"
	"hangmantrainer/internal/security"
	"hangmantrainer/internal/wordbank"
)

func adminRequest(t *testing.T, ts *testServer, password, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if password != "" {
		req.SetBasicAuth("admin", password)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func newAdminServer(t *testing.T) *testServer {
	t.Helper()
	hash, err := security.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	return newTestServer(t, serverOptions{adminHash: hash})
}

func TestAdminAuth(t *testing.T) {
	t.Run("disabled without hash", func(t *testing.T) {
		ts := newTestServer(t, serverOptions{})
		rec := adminRequest(t, ts, testAdminPassword, http.MethodGet, "/api/admin/words", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	ts := newAdminServer(t)

	tests := []struct {
		name     string
		password string
		status   int
	}{
		{"no credential", "", http.StatusUnauthorized},
		{"wrong password", "wrong", http.StatusUnauthorized},
		{"correct password", testAdminPassword, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := adminRequest(t, ts, tt.password, http.MethodGet, "/api/admin/words", "")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestAdminUpdateWords(t *testing.T) {
	ts := newAdminServer(t)

	words := wordbank.DefaultWords()
	words[2] = models.WordEntry{Level: 3, Word: "mouse", Hint: "Pointing device"}
	body, _ := json.Marshal(words)

	rec := adminRequest(t, ts, testAdminPassword, http.MethodPut, "/api/admin/words", string(body))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"success":true}` {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = adminRequest(t, ts, testAdminPassword, http.MethodGet, "/api/admin/words", "")
	var got []models.WordEntry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode words: %v", err)
	}
	if got[2].Word != "MOUSE" {
		t.Errorf("level 3 = %+v", got[2])
	}

	invalid, _ := json.Marshal(words[:5])
	rec = adminRequest(t, ts, testAdminPassword, http.MethodPut, "/api/admin/words", string(invalid))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error == "" {
		t.Errorf("invalid update status = %d", rec.Code)
	}
}

func TestAdminResults(t *testing.T) {
	ts := newAdminServer(t)

	p := ts.identify(t, "EMP500")
	ts.do(t, p, http.MethodPost, "/api/game/start", "")
	ts.do(t, p, http.MethodPost, "/api/game/exit", "")

	rec := adminRequest(t, ts, testAdminPassword, http.MethodGet, "/api/admin/results", "")
	var stored []models.LevelResult
	if err := json.NewDecoder(rec.Body).Decode(&stored); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(stored) != 1 || stored[0].EmployeeID != "EMP500" || !stored[0].ExitedEarly {
		t.Fatalf("results = %+v", stored)
	}

	rec = adminRequest(t, ts, testAdminPassword, http.MethodGet, "/api/admin/results/summary", "")
	var summary report.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalGames != 1 || summary.ExitedPercent != 100 {
		t.Errorf("summary = %+v", summary)
	}

	rec = adminRequest(t, ts, testAdminPassword, http.MethodGet, "/api/admin/results/report", "")
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "hangman_all_results_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "EMP500") {
		t.Errorf("report missing player: %s", rec.Body.String())
	}

	rec = adminRequest(t, ts, testAdminPassword, http.MethodDelete, "/api/admin/results", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	rec = adminRequest(t, ts, testAdminPassword, http.MethodGet, "/api/admin/results", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("results after clear = %s", rec.Body.String())
	}
}
