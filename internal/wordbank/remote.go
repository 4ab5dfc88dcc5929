package wordbank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/clientcredentials"

	"hangmantrainer/internal/cache"
	"hangmantrainer/internal/config"
	"hangmantrainer/internal/models"
	"hangmantrainer/internal/validation"
)

// PlayerTokenHeader carries the player token when Authorization is taken by the provider's own auth
const PlayerTokenHeader = "X-Player-Token"

// Cache stores fetched levels
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ProviderError is an {error} reply from the word provider
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("word provider returned %d: %s", e.Status, e.Message)
}

// RemoteProvider talks to a word provider over HTTP
type RemoteProvider struct {
	baseURL  string
	client   *http.Client
	admin    *http.Client
	cache    Cache
	cacheTTL time.Duration
}

// NewRemoteProvider builds a provider client. When client credentials are configured, level
// requests are authenticated with an OAuth2 client-credentials token. cache may be nil.
func NewRemoteProvider(cfg config.WordProviderConfig, c Cache) *RemoteProvider {
	client := &http.Client{Timeout: 10 * time.Second}
	if cfg.ClientID != "" && cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		client = cc.Client(context.Background())
		client.Timeout = 10 * time.Second
	}

	return &RemoteProvider{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		client:   client,
		admin:    &http.Client{Timeout: 10 * time.Second},
		cache:    c,
		cacheTTL: cfg.CacheTTL,
	}
}

type wordReply struct {
	Word  string `json:"word"`
	Hint  string `json:"hint"`
	Error string `json:"error"`
}

type updateReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func cacheKey(level int) string {
	return "hangman:word:" + strconv.Itoa(level)
}

// GetWord fetches the entry for level using a player token
func (p *RemoteProvider) GetWord(ctx context.Context, level int, token string) (models.WordEntry, error) {
	if level < 1 || level > models.MaxLevels {
		return models.WordEntry{}, NotFoundError{Level: level}
	}
	if token == "" {
		return models.WordEntry{}, errors.New("player token is required")
	}

	if entry, ok := p.cached(ctx, level); ok {
		return entry, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/words/%d", p.baseURL, level), nil)
	if err != nil {
		return models.WordEntry{}, fmt.Errorf("build word request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(PlayerTokenHeader, token)

	resp, err := p.client.Do(req)
	if err != nil {
		return models.WordEntry{}, fmt.Errorf("fetch level %d: %w", level, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.WordEntry{}, NotFoundError{Level: level}
	}

	var reply wordReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&reply); err != nil {
		return models.WordEntry{}, fmt.Errorf("decode level %d: %w", level, err)
	}
	if resp.StatusCode != http.StatusOK || reply.Error != "" {
		return models.WordEntry{}, &ProviderError{Status: resp.StatusCode, Message: reply.Error}
	}
	if strings.TrimSpace(reply.Word) == "" {
		return models.WordEntry{}, &ProviderError{Status: resp.StatusCode, Message: "empty word"}
	}

	word := strings.ToUpper(strings.TrimSpace(reply.Word))
	if !validation.IsWord(word) {
		return models.WordEntry{}, &ProviderError{Status: resp.StatusCode, Message: "word must contain only letters A-Z"}
	}

	entry := models.WordEntry{Level: level, Word: word, Hint: reply.Hint}
	p.store(ctx, entry)
	return entry, nil
}

// UpdateWords replaces the provider's whole word list using the admin credential
func (p *RemoteProvider) UpdateWords(ctx context.Context, credential string, entries []models.WordEntry) error {
	body, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode words: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.baseURL+"/api/admin/words", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", credential)

	resp, err := p.admin.Do(req)
	if err != nil {
		return fmt.Errorf("update words: %w", err)
	}
	defer resp.Body.Close()

	var reply updateReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&reply); err != nil {
		return fmt.Errorf("decode update reply: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !reply.Success {
		return &ProviderError{Status: resp.StatusCode, Message: reply.Error}
	}

	p.invalidate(ctx)
	return nil
}

// ForToken binds the provider to one player's token
func (p *RemoteProvider) ForToken(token string) *SessionSource {
	return &SessionSource{provider: p, token: token}
}

func (p *RemoteProvider) cached(ctx context.Context, level int) (models.WordEntry, bool) {
	if p.cache == nil {
		return models.WordEntry{}, false
	}

	raw, err := p.cache.Get(ctx, cacheKey(level))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Debug().Err(err).Int("level", level).Msg("Word cache read failed")
		}
		return models.WordEntry{}, false
	}

	var entry models.WordEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.Word == "" {
		return models.WordEntry{}, false
	}
	return entry, true
}

func (p *RemoteProvider) store(ctx context.Context, entry models.WordEntry) {
	if p.cache == nil {
		return
	}
	data, _ := json.Marshal(entry)
	if err := p.cache.Set(ctx, cacheKey(entry.Level), string(data), p.cacheTTL); err != nil {
		log.Debug().Err(err).Int("level", entry.Level).Msg("Word cache write failed")
	}
}

func (p *RemoteProvider) invalidate(ctx context.Context) {
	if p.cache == nil {
		return
	}
	keys := make([]string, 0, models.MaxLevels)
	for i := 1; i <= models.MaxLevels; i++ {
		keys = append(keys, cacheKey(i))
	}
	if err := p.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate word cache")
	}
}

// SessionSource loads a player's levels from the remote provider
type SessionSource struct {
	provider *RemoteProvider
	token    string
}

// GetLevel fetches level with the bound token
func (s *SessionSource) GetLevel(ctx context.Context, level int) (models.WordEntry, error) {
	return s.provider.GetWord(ctx, level, s.token)
}
