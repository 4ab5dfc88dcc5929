package handlers

import "net/http"

// RegisterRoutes mounts the whole HTTP API on mux
func RegisterRoutes(mux *http.ServeMux, m *Middleware, gameHandler *GameHandler, eventsHandler *EventsHandler, wordsHandler *WordsHandler, adminHandler *AdminHandler) {
	mux.HandleFunc("GET /healthz", gameHandler.Health)

	// Player routes
	mux.HandleFunc("POST /api/session/identity", m.RateLimit(gameHandler.Identify))
	mux.HandleFunc("GET /api/game/state", m.RequireSession(gameHandler.State))
	mux.HandleFunc("GET /api/game/events", m.RequireSession(eventsHandler.Stream))
	mux.HandleFunc("POST /api/game/start", m.RequireSession(m.CSRFProtect(gameHandler.Start)))
	mux.HandleFunc("POST /api/game/guess", m.RateLimit(m.RequireSession(m.CSRFProtect(gameHandler.Guess))))
	mux.HandleFunc("POST /api/game/next", m.RequireSession(m.CSRFProtect(gameHandler.Next)))
	mux.HandleFunc("POST /api/game/exit", m.RequireSession(m.CSRFProtect(gameHandler.Exit)))

	// Word provider
	mux.HandleFunc("GET /api/words/{level}", m.RequirePlayerToken(wordsHandler.GetWord))

	// Admin routes
	mux.HandleFunc("GET /api/admin/words", m.RequireAdmin(adminHandler.GetWords))
	mux.HandleFunc("PUT /api/admin/words", m.RequireAdmin(adminHandler.UpdateWords))
	mux.HandleFunc("GET /api/admin/results", m.RequireAdmin(adminHandler.Results))
	mux.HandleFunc("GET /api/admin/results/summary", m.RequireAdmin(adminHandler.Summary))
	mux.HandleFunc("GET /api/admin/results/report", m.RequireAdmin(adminHandler.Report))
	mux.HandleFunc("DELETE /api/admin/results", m.RequireAdmin(adminHandler.ClearResults))
	mux.HandleFunc("GET /api/admin/backup", m.RequireAdmin(adminHandler.ExportDatabase))
}
