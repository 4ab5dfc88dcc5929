// Package wordbank holds the word and hint for each level and fetches them from a remote provider
// when one is configured.
package wordbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/models"
	"hangmantrainer/internal/repository"
	"hangmantrainer/internal/validation"
)

// BlobStore persists whole documents by key
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// NotFoundError is returned for a level outside the configured range
type NotFoundError struct {
	Level int
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("level %d not found", e.Level)
}

var defaultWords = []models.WordEntry{
	{Level: 1, Word: "JAVASCRIPT", Hint: "A popular programming language for web development"},
	{Level: 2, Word: "COMPUTER", Hint: "Electronic device for processing data"},
	{Level: 3, Word: "KEYBOARD", Hint: "Input device with letters and numbers"},
	{Level: 4, Word: "INTERNET", Hint: "Global network connecting computers worldwide"},
	{Level: 5, Word: "ALGORITHM", Hint: "Step-by-step procedure for solving problems"},
	{Level: 6, Word: "DATABASE", Hint: "Organized collection of structured information"},
	{Level: 7, Word: "PROGRAMMING", Hint: "Process of creating computer software"},
	{Level: 8, Word: "CYBERSECURITY", Hint: "Protection of digital information and systems"},
	{Level: 9, Word: "ARTIFICIAL", Hint: "Made by humans, not occurring naturally"},
	{Level: 10, Word: "TECHNOLOGY", Hint: "Application of scientific knowledge for practical purposes"},
}

// DefaultWords returns a copy of the built-in word list
func DefaultWords() []models.WordEntry {
	return append([]models.WordEntry(nil), defaultWords...)
}

// Bank is the locally configured word list
type Bank struct {
	mu      sync.RWMutex
	blobs   BlobStore
	entries []models.WordEntry
}

// NewBank loads the stored configuration, falling back to the defaults when none is stored
// or the stored one is unusable.
func NewBank(ctx context.Context, blobs BlobStore) (*Bank, error) {
	b := &Bank{blobs: blobs, entries: DefaultWords()}

	data, err := blobs.Get(ctx, repository.ConfigKey)
	if errors.Is(err, repository.ErrBlobNotFound) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load word configuration: %w", err)
	}

	var stored []models.WordEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Warn().Err(err).Msg("Stored word configuration is corrupt, using defaults")
		return b, nil
	}
	entries, err := validation.NormalizeWordEntries(stored)
	if err != nil {
		log.Warn().Err(err).Msg("Stored word configuration is invalid, using defaults")
		return b, nil
	}

	b.entries = entries
	return b, nil
}

// GetLevel returns the entry for a 1-indexed level
func (b *Bank) GetLevel(_ context.Context, level int) (models.WordEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if level < 1 || level > len(b.entries) {
		return models.WordEntry{}, NotFoundError{Level: level}
	}
	return b.entries[level-1], nil
}

// ReplaceAll validates and persists a complete new word list. Nothing changes on failure.
func (b *Bank) ReplaceAll(ctx context.Context, entries []models.WordEntry) error {
	normalized, err := validation.NormalizeWordEntries(entries)
	if err != nil {
		return err
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("encode word configuration: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.blobs.Put(ctx, repository.ConfigKey, data); err != nil {
		return fmt.Errorf("save word configuration: %w", err)
	}
	b.entries = normalized
	return nil
}

// All returns a copy of the current list ordered by level
func (b *Bank) All() []models.WordEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.WordEntry(nil), b.entries...)
}
