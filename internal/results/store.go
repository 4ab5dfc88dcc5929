// Package results keeps every LevelResult produced by this server in one persisted list.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/models"
	"hangmantrainer/internal/repository"
)

// BlobStore persists whole documents by key
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Store is the ordered, append-only result list. Every change rewrites the whole persisted list
// before memory is updated.
type Store struct {
	mu      sync.Mutex
	blobs   BlobStore
	results []models.LevelResult
}

// NewStore loads the persisted results. A corrupt blob is logged and treated as empty.
func NewStore(ctx context.Context, blobs BlobStore) (*Store, error) {
	s := &Store{blobs: blobs}

	data, err := blobs.Get(ctx, repository.ResultsKey)
	if errors.Is(err, repository.ErrBlobNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	if err := json.Unmarshal(data, &s.results); err != nil {
		log.Error().Err(err).Msg("Stored results are corrupt, starting empty")
		s.results = nil
	}
	return s, nil
}

// Append adds result at the end and persists the full list
func (s *Store) Append(ctx context.Context, result models.LevelResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.LevelResult, len(s.results), len(s.results)+1)
	copy(next, s.results)
	next = append(next, result)

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.results = next
	return nil
}

// Clear empties the list and persists the empty state
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, []models.LevelResult{}); err != nil {
		return err
	}
	s.results = nil
	return nil
}

// All returns the results oldest first
func (s *Store) All() []models.LevelResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LevelResult, len(s.results))
	copy(out, s.results)
	return out
}

// Len returns the number of stored results
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func (s *Store) persist(ctx context.Context, results []models.LevelResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := s.blobs.Put(ctx, repository.ResultsKey, data); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}
