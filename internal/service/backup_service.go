package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/database"
	"hangmantrainer/internal/models"
	"hangmantrainer/internal/repository"
	"hangmantrainer/internal/validation"
	"hangmantrainer/internal/wordbank"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData is the complete persisted state: the word configuration and the result list
type BackupData struct {
	Version      string               `json:"version"`
	ExportedAt   time.Time            `json:"exported_at"`
	DatabaseType string               `json:"database_type"`
	Words        []models.WordEntry   `json:"words"`
	Results      []models.LevelResult `json:"results"`
}

// BackupService exports and restores both blobs. Import must run while no server is using the database.
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Snapshot reads the persisted state. A missing word config reads as the defaults.
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	repo := repository.NewBlobRepository(s.db)

	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.GetDialect().DriverName(),
		Words:        wordbank.DefaultWords(),
		Results:      []models.LevelResult{},
	}

	if err := readBlob(ctx, repo, repository.ConfigKey, &backup.Words); err != nil {
		return nil, err
	}
	if err := readBlob(ctx, repo, repository.ResultsKey, &backup.Results); err != nil {
		return nil, err
	}
	return backup, nil
}

func readBlob(ctx context.Context, repo *repository.BlobRepository, key string, v interface{}) error {
	data, err := repo.Get(ctx, key)
	if errors.Is(err, repository.ErrBlobNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Export writes a backup to outputPath
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	log.Info().Str("path", outputPath).Msg("Starting database export")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.ExportToWriter(ctx, file)
	if err != nil {
		return err
	}

	log.Info().
		Str("path", outputPath).
		Int("words", len(backup.Words)).
		Int("results", len(backup.Results)).
		Msg("Database exported")
	return nil
}

// ExportToWriter encodes a backup to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup, nil
}

// Import restores a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	log.Info().Str("path", inputPath).Msg("Starting database import")
	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup, replacing both blobs in one transaction. The word list
// is validated before anything is written.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Info().Str("version", backup.Version).Time("exportedAt", backup.ExportedAt).Msg("Read backup")

	words, err := validation.NormalizeWordEntries(backup.Words)
	if err != nil {
		return fmt.Errorf("backup word list: %w", err)
	}
	if backup.Results == nil {
		backup.Results = []models.LevelResult{}
	}

	wordData, err := json.Marshal(words)
	if err != nil {
		return err
	}
	resultData, err := json.Marshal(backup.Results)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repo := repository.NewBlobRepository(s.db).WithTx(tx)
	if err := repo.Put(ctx, repository.ConfigKey, wordData); err != nil {
		return err
	}
	if err := repo.Put(ctx, repository.ResultsKey, resultData); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Info().Int("words", len(words)).Int("results", len(backup.Results)).Msg("Database import completed")
	return nil
}
