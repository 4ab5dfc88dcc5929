package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hangmantrainer/internal/models"
	"hangmantrainer/internal/publisher"
	"hangmantrainer/internal/repository"
	"hangmantrainer/internal/results"
	"hangmantrainer/internal/security"
	"hangmantrainer/internal/wordbank"
)

type memoryBlobs struct {
	mu     sync.Mutex
	data   map[string][]byte
	putErr error
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{data: make(map[string][]byte)}
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

func (m *memoryBlobs) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value
	return nil
}

func (m *memoryBlobs) failPuts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}

type captureCollector struct {
	mu  sync.Mutex
	got []models.LevelResult
}

func (c *captureCollector) Name() string { return "capture" }

func (c *captureCollector) Collect(_ context.Context, r models.LevelResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, r)
	return nil
}

func (c *captureCollector) results() []models.LevelResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.LevelResult(nil), c.got...)
}

type failingCollector struct{}

func (failingCollector) Name() string { return "failing" }

func (failingCollector) Collect(context.Context, models.LevelResult) error {
	return errors.New("connection refused")
}

type panickingCollector struct{}

func (panickingCollector) Name() string { return "panicking" }

func (panickingCollector) Collect(context.Context, models.LevelResult) error {
	panic("collector bug")
}

type fixture struct {
	failures  atomic.Int32
	blobs     *memoryBlobs
	bank      *wordbank.Bank
	store     *results.Store
	collector *captureCollector
	pub       *publisher.Publisher
	tokens    *security.TokenIssuer
	games     *GameService
}

func newFixture(t *testing.T, remote *wordbank.RemoteProvider, extra ...publisher.Collector) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{blobs: newMemoryBlobs(), collector: &captureCollector{}}

	var err error
	f.bank, err = wordbank.NewBank(ctx, f.blobs)
	if err != nil {
		t.Fatalf("NewBank() error = %v", err)
	}
	f.store, err = results.NewStore(ctx, f.blobs)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	collectors := append([]publisher.Collector{f.collector}, extra...)
	f.pub = publisher.New(time.Second, collectors, publisher.WithFailureHandler(func(*publisher.TransportError) {
		f.failures.Add(1)
	}))
	f.tokens = security.NewTokenIssuer("test-secret", time.Hour)
	f.games = NewGameService(f.bank, remote, f.store, f.pub, f.tokens, 30*time.Minute)
	return f
}

func (f *fixture) waitPublished(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.pub.Wait(ctx); err != nil {
		t.Fatalf("publisher did not finish: %v", err)
	}
}
