package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/models"
	"hangmantrainer/internal/report"
	"hangmantrainer/internal/results"
	"hangmantrainer/internal/validation"
	"hangmantrainer/internal/wordbank"
)

// AdminService handles word configuration and result administration
type AdminService struct {
	bank   *wordbank.Bank
	remote *wordbank.RemoteProvider
	store  *results.Store
	now    func() time.Time
}

// NewAdminService creates an admin service. remote may be nil.
func NewAdminService(bank *wordbank.Bank, remote *wordbank.RemoteProvider, store *results.Store) *AdminService {
	return &AdminService{
		bank:   bank,
		remote: remote,
		store:  store,
		now:    time.Now,
	}
}

// Words returns the locally configured word list
func (s *AdminService) Words() []models.WordEntry {
	return s.bank.All()
}

// UpdateWords replaces the whole word list. With a remote provider configured the provider is
// updated first using credential, and the local copy only changes if that succeeded.
func (s *AdminService) UpdateWords(ctx context.Context, credential string, entries []models.WordEntry) error {
	normalized, err := validation.NormalizeWordEntries(entries)
	if err != nil {
		return err
	}

	if s.remote != nil {
		if err := s.remote.UpdateWords(ctx, credential, normalized); err != nil {
			return fmt.Errorf("update word provider: %w", err)
		}
	}

	if err := s.bank.ReplaceAll(ctx, normalized); err != nil {
		return err
	}

	log.Info().Msg("Word configuration updated")
	return nil
}

// Results returns every stored result, oldest first
func (s *AdminService) Results() []models.LevelResult {
	return s.store.All()
}

// Summary returns aggregate statistics over the stored results
func (s *AdminService) Summary() report.Summary {
	return report.Summarize(s.store.All())
}

// Report renders the consolidated report and its download filename
func (s *AdminService) Report() (filename, body string) {
	now := s.now()
	return report.ConsolidatedFilename(now), report.Consolidated(s.store.All(), now)
}

// ClearResults deletes all stored results
func (s *AdminService) ClearResults(ctx context.Context) error {
	n := s.store.Len()
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	log.Info().Int("cleared", n).Msg("Results cleared")
	return nil
}
