package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"hangmantrainer/internal/wordbank"
)

// WordsHandler serves the word-provider API backed by the local word bank
type WordsHandler struct {
	bank *wordbank.Bank
}

// NewWordsHandler creates a new words handler
func NewWordsHandler(bank *wordbank.Bank) *WordsHandler {
	return &WordsHandler{bank: bank}
}

type wordResponse struct {
	Word string `json:"word"`
	Hint string `json:"hint"`
}

// GetWord returns the word and hint for a level. Requires a player token.
func (h *WordsHandler) GetWord(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.PathValue("level"))
	if err != nil {
		respondWithJSONError(w, http.StatusBadRequest, "Invalid level", "", nil)
		return
	}

	entry, err := h.bank.GetLevel(r.Context(), level)
	var nf wordbank.NotFoundError
	if errors.As(err, &nf) {
		respondWithJSONError(w, http.StatusNotFound, nf.Error(), "", nil)
		return
	}
	if err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrLevelLoad, "Error loading level", err)
		return
	}

	writeJSON(w, http.StatusOK, wordResponse{Word: entry.Word, Hint: entry.Hint})
}
