// Package publisher relays each LevelResult to the configured collectors in the background.
// Delivery is a single attempt per collector; failures are logged and never reach the caller.
package publisher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/models"
)

// Collector receives published results
type Collector interface {
	Name() string
	Collect(ctx context.Context, result models.LevelResult) error
}

// TransportError records a failed delivery to one collector
type TransportError struct {
	Collector string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("collector %s: %v", e.Collector, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Publisher fans results out to collectors
type Publisher struct {
	collectors []Collector
	timeout    time.Duration
	onFailure  func(*TransportError)
	wg         sync.WaitGroup
}

// Option configures a Publisher
type Option func(*Publisher)

// WithFailureHandler is called after each failed delivery has been logged
func WithFailureHandler(fn func(*TransportError)) Option {
	return func(p *Publisher) {
		p.onFailure = fn
	}
}

// New creates a publisher. A non-positive timeout defaults to ten seconds.
func New(timeout time.Duration, collectors []Collector, opts ...Option) *Publisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &Publisher{collectors: collectors, timeout: timeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Collectors returns the names of the configured collectors
func (p *Publisher) Collectors() []string {
	names := make([]string, 0, len(p.collectors))
	for _, c := range p.collectors {
		names = append(names, c.Name())
	}
	return names
}

// Publish starts one delivery per collector and returns immediately
func (p *Publisher) Publish(result models.LevelResult) {
	for _, c := range p.collectors {
		p.wg.Add(1)
		go p.deliver(c, result)
	}
}

// Wait blocks until in-flight deliveries finish or ctx is done. Only shutdown and tests use it.
func (p *Publisher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) deliver(c Collector, result models.LevelResult) {
	defer p.wg.Done()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			p.fail(&TransportError{Collector: c.Name(), Err: err}, result)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	err = c.Collect(ctx, result)
	if err == nil {
		log.Debug().
			Str("collector", c.Name()).
			Str("employeeId", result.EmployeeID).
			Int("level", result.Level).
			Dur("took", time.Since(start)).
			Msg("Result published")
	}
}

func (p *Publisher) fail(terr *TransportError, result models.LevelResult) {
	log.Warn().
		Err(terr.Err).
		Str("collector", terr.Collector).
		Str("employeeId", result.EmployeeID).
		Int("level", result.Level).
		Msg("Failed to publish result")

	if p.onFailure != nil {
		p.onFailure(terr)
	}
}
