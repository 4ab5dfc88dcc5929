package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/game"
	"hangmantrainer/internal/models"
	"hangmantrainer/internal/security"
	"hangmantrainer/internal/service"
	"hangmantrainer/internal/validation"
)

// GameHandler exposes the game session state machine as a JSON API
type GameHandler struct {
	games *service.GameService
	csrf  *security.CSRF
}

// NewGameHandler creates a new game handler
func NewGameHandler(games *service.GameService, csrf *security.CSRF) *GameHandler {
	return &GameHandler{games: games, csrf: csrf}
}

type identityRequest struct {
	EmployeeID string `json:"employeeId"`
}

type identityResponse struct {
	Snapshot     game.Snapshot `json:"snapshot"`
	PlayerToken  string        `json:"playerToken"`
	TokenExpires time.Time     `json:"tokenExpires"`
	CSRFToken    string        `json:"csrfToken"`
}

type guessRequest struct {
	Letter string `json:"letter"`
}

type gameResponse struct {
	Snapshot game.Snapshot       `json:"snapshot"`
	Outcome  game.GuessOutcome   `json:"outcome,omitempty"`
	Result   *models.LevelResult `json:"result,omitempty"`
	Warning  string              `json:"warning,omitempty"`
}

// Identify starts a session for an employee ID
func (h *GameHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	info, err := h.games.Identify(r.Context(), req.EmployeeID)
	if err != nil {
		h.respondWithGameError(w, r, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, info.ID, info.TokenExpires))
	writeJSON(w, http.StatusOK, identityResponse{
		Snapshot:     info.Snapshot,
		PlayerToken:  info.PlayerToken,
		TokenExpires: info.TokenExpires,
		CSRFToken:    h.csrf.Token(info.ID),
	})
}

// Start loads level 1
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	snap, err := h.games.Start(r.Context(), GetSessionID(r.Context()))
	h.respond(w, r, gameResponse{Snapshot: snap}, err)
}

// Guess applies one letter
func (h *GameHandler) Guess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	outcome, snap, err := h.games.Guess(r.Context(), GetSessionID(r.Context()), req.Letter)
	h.respond(w, r, gameResponse{Snapshot: snap, Outcome: outcome}, err)
}

// Next advances to the following level
func (h *GameHandler) Next(w http.ResponseWriter, r *http.Request) {
	snap, err := h.games.Next(r.Context(), GetSessionID(r.Context()))
	h.respond(w, r, gameResponse{Snapshot: snap}, err)
}

// State returns the current snapshot
func (h *GameHandler) State(w http.ResponseWriter, r *http.Request) {
	snap, err := h.games.State(GetSessionID(r.Context()))
	h.respond(w, r, gameResponse{Snapshot: snap}, err)
}

// Exit ends the session and clears the cookie
func (h *GameHandler) Exit(w http.ResponseWriter, r *http.Request) {
	result, err := h.games.Exit(r.Context(), GetSessionID(r.Context()))
	if !errors.Is(err, service.ErrNoSession) {
		http.SetCookie(w, security.CreateDeleteCookie(r))
	}
	h.respond(w, r, gameResponse{Snapshot: game.Snapshot{State: game.StateExited}, Result: result}, err)
}

// Health reports liveness and the number of live sessions
func (h *GameHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"activeSessions": h.games.ActiveSessions(),
	})
}

// respond writes resp, turning an unsaved result into a warning on an otherwise successful call
func (h *GameHandler) respond(w http.ResponseWriter, r *http.Request, resp gameResponse, err error) {
	if errors.Is(err, service.ErrResultNotSaved) {
		resp.Warning = WarnResultNotSaved
		err = nil
	}
	if err != nil {
		h.respondWithGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GameHandler) respondWithGameError(w http.ResponseWriter, r *http.Request, err error) {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, service.ErrNoSession):
		http.SetCookie(w, security.CreateDeleteCookie(r))
		respondWithJSONError(w, http.StatusUnauthorized, ErrNoSession, "", nil)
	case errors.Is(err, game.ErrInvalidTransition):
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected game action")
		respondWithJSONError(w, http.StatusConflict, ErrInvalidState, "", nil)
	default:
		respondWithJSONError(w, http.StatusInternalServerError, ErrLevelLoad, "Game operation failed", err)
	}
}
