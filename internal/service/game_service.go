package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/game"
	"hangmantrainer/internal/models"
	"hangmantrainer/internal/publisher"
	"hangmantrainer/internal/results"
	"hangmantrainer/internal/security"
	"hangmantrainer/internal/validation"
	"hangmantrainer/internal/wordbank"
)

var (
	// ErrNoSession is returned when a session ID does not map to a live session
	ErrNoSession = errors.New("no active game session")
	// ErrResultNotSaved marks a transition whose result could not be stored locally
	ErrResultNotSaved = errors.New("result could not be saved")
)

const subscriberBuffer = 32

// SessionInfo is returned when a player identifies
type SessionInfo struct {
	ID           string
	PlayerToken  string
	TokenExpires time.Time
	Snapshot     game.Snapshot
}

// GameService owns the live game sessions of this server
type GameService struct {
	mu       sync.Mutex
	sessions map[string]*liveSession

	bank        game.WordSource
	remote      *wordbank.RemoteProvider
	store       *results.Store
	publisher   *publisher.Publisher
	tokens      *security.TokenIssuer
	idleTimeout time.Duration
	now         func() time.Time
}

type liveSession struct {
	mu         sync.Mutex
	id         string
	game       *game.Session
	lastActive time.Time
	subs       map[int]chan game.Event
	nextSub    int
	closed     bool
}

// NewGameService wires sessions to their word source and result sinks. remote may be nil, in which
// case levels come from bank.
func NewGameService(bank game.WordSource, remote *wordbank.RemoteProvider, store *results.Store, pub *publisher.Publisher, tokens *security.TokenIssuer, idleTimeout time.Duration) *GameService {
	return &GameService{
		sessions:    make(map[string]*liveSession),
		bank:        bank,
		remote:      remote,
		store:       store,
		publisher:   pub,
		tokens:      tokens,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// record stores a result then hands it to the publisher. Publishing happens even when the
// store write failed. The write outlives a cancelled request since the transition already happened.
func (s *GameService) record(ctx context.Context, result models.LevelResult) error {
	storeErr := s.store.Append(context.WithoutCancel(ctx), result)
	if storeErr != nil {
		log.Error().Err(storeErr).
			Str("employeeId", result.EmployeeID).
			Int("level", result.Level).
			Msg("Failed to store level result")
	}

	s.publisher.Publish(result)

	if storeErr != nil {
		return fmt.Errorf("%w: %v", ErrResultNotSaved, storeErr)
	}
	return nil
}

// Identify creates a session for the employee ID and issues the player's word token
func (s *GameService) Identify(ctx context.Context, rawEmployeeID string) (*SessionInfo, error) {
	employeeID, err := validation.NormalizeEmployeeID(rawEmployeeID)
	if err != nil {
		return nil, err
	}

	id := security.GenerateSessionID()
	token, exp, err := s.tokens.Issue(employeeID, id)
	if err != nil {
		return nil, err
	}

	var source game.WordSource = s.bank
	if s.remote != nil {
		source = s.remote.ForToken(token)
	}

	ls := &liveSession{
		id:         id,
		lastActive: s.now(),
		subs:       make(map[int]chan game.Event),
	}
	ls.game = game.NewSession(source, game.RecorderFunc(s.record), game.WithObserver(game.ObserverFunc(ls.broadcast)))

	if err := ls.game.SubmitIdentity(employeeID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[id] = ls
	s.mu.Unlock()

	log.Info().Str("session", id).Str("employeeId", employeeID).Msg("Player identified")

	return &SessionInfo{ID: id, PlayerToken: token, TokenExpires: exp, Snapshot: ls.game.Snapshot()}, nil
}

func (s *GameService) lookup(id string) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	return ls, nil
}

// withSession runs fn holding the session's lock
func (s *GameService) withSession(id string, fn func(ls *liveSession) error) (game.Snapshot, error) {
	ls, err := s.lookup(id)
	if err != nil {
		return game.Snapshot{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.closed {
		return game.Snapshot{}, ErrNoSession
	}

	ls.lastActive = s.now()
	err = fn(ls)
	return ls.game.Snapshot(), err
}

// Start begins level 1
func (s *GameService) Start(ctx context.Context, id string) (game.Snapshot, error) {
	return s.withSession(id, func(ls *liveSession) error {
		return ls.game.StartGame(ctx)
	})
}

// Guess applies a letter guess
func (s *GameService) Guess(ctx context.Context, id, letter string) (game.GuessOutcome, game.Snapshot, error) {
	var outcome game.GuessOutcome
	snap, err := s.withSession(id, func(ls *liveSession) error {
		var err error
		outcome, err = ls.game.GuessLetter(ctx, letter)
		return err
	})
	return outcome, snap, err
}

// Next advances to the next level after a completed one
func (s *GameService) Next(ctx context.Context, id string) (game.Snapshot, error) {
	return s.withSession(id, func(ls *liveSession) error {
		return ls.game.AdvanceLevel(ctx)
	})
}

// State returns the current snapshot
func (s *GameService) State(id string) (game.Snapshot, error) {
	return s.withSession(id, func(*liveSession) error { return nil })
}

// Exit ends the session and discards it
func (s *GameService) Exit(ctx context.Context, id string) (*models.LevelResult, error) {
	var result *models.LevelResult
	_, err := s.withSession(id, func(ls *liveSession) error {
		var err error
		result, err = ls.game.ExitSession(ctx)
		ls.close()
		return err
	})
	if errors.Is(err, ErrNoSession) {
		return nil, err
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	return result, err
}

// Subscribe streams the session's events until cancel is called or the session ends
func (s *GameService) Subscribe(id string) (<-chan game.Event, func(), error) {
	ls, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.closed {
		return nil, nil, ErrNoSession
	}

	ch := make(chan game.Event, subscriberBuffer)
	key := ls.nextSub
	ls.nextSub++
	ls.subs[key] = ch

	cancel := func() {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		if sub, ok := ls.subs[key]; ok {
			delete(ls.subs, key)
			close(sub)
		}
	}
	return ch, cancel, nil
}

// ActiveSessions returns the number of live sessions
func (s *GameService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ReapIdle discards sessions inactive for longer than the idle timeout. No results are emitted.
func (s *GameService) ReapIdle() int {
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.Lock()
	var stale []*liveSession
	for id, ls := range s.sessions {
		ls.mu.Lock()
		if ls.lastActive.Before(cutoff) {
			stale = append(stale, ls)
			delete(s.sessions, id)
		}
		ls.mu.Unlock()
	}
	s.mu.Unlock()

	for _, ls := range stale {
		ls.mu.Lock()
		ls.close()
		ls.mu.Unlock()
		log.Info().Str("session", ls.id).Msg("Discarded idle session")
	}
	return len(stale)
}

// RunReaper calls ReapIdle periodically until ctx is done
func (s *GameService) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ReapIdle()
		}
	}
}

// broadcast runs under ls.mu from inside a session operation
func (ls *liveSession) broadcast(e game.Event) {
	for key, ch := range ls.subs {
		select {
		case ch <- e:
		default:
			log.Debug().Str("session", ls.id).Int("subscriber", key).Str("event", string(e.Type)).Msg("Dropped event for slow subscriber")
		}
	}
}

// close must be called with ls.mu held
func (ls *liveSession) close() {
	if ls.closed {
		return
	}
	ls.closed = true
	for key, ch := range ls.subs {
		delete(ls.subs, key)
		close(ch)
	}
}
