// Package game implements the per-player hangman session state machine.
//
// A Session moves through AwaitingIdentity → Idle → Guessing → {LevelComplete | LevelFailed}
// → {Guessing (next level) | SessionEnded}, with Exited reachable at any time. Each level end
// produces exactly one models.LevelResult which is handed to the Recorder after the transition
// has been applied. Observers see every transition as an Event.
package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"hangmantrainer/internal/models"
	"hangmantrainer/internal/validation"
)

// State is a session lifecycle state
type State string

const (
	StateAwaitingIdentity State = "awaiting_identity"
	StateIdle             State = "idle"
	StateGuessing         State = "guessing"
	StateLevelComplete    State = "level_complete"
	StateLevelFailed      State = "level_failed"
	StateSessionEnded     State = "session_ended"
	StateExited           State = "exited"
)

// ErrInvalidTransition is returned when an operation is not valid in the current state
var ErrInvalidTransition = errors.New("operation not valid in current game state")

// WordSource supplies the word for a level
type WordSource interface {
	GetLevel(ctx context.Context, level int) (models.WordEntry, error)
}

// Recorder receives every LevelResult the session emits
type Recorder interface {
	Record(ctx context.Context, result models.LevelResult) error
}

// RecorderFunc adapts a function to Recorder
type RecorderFunc func(ctx context.Context, result models.LevelResult) error

// Record calls f
func (f RecorderFunc) Record(ctx context.Context, result models.LevelResult) error {
	return f(ctx, result)
}

// GuessOutcome describes what a guess did
type GuessOutcome string

const (
	GuessIgnored       GuessOutcome = "ignored"
	GuessCorrect       GuessOutcome = "correct"
	GuessIncorrect     GuessOutcome = "incorrect"
	GuessLevelComplete GuessOutcome = "level_complete"
	GuessLevelFailed   GuessOutcome = "level_failed"
)

// Session is one player's visit. It is not safe for concurrent use.
type Session struct {
	source    WordSource
	recorder  Recorder
	observers []Observer
	now       func() time.Time

	state            State
	employeeID       string
	currentLevel     int
	chances          int
	guessedLetters   map[byte]bool
	correctLetters   map[byte]bool
	currentWord      string
	currentHint      string
	sessionStartTime time.Time
}

// Option configures a Session
type Option func(*Session)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithObserver registers an observer at construction
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observers = append(s.observers, o)
	}
}

// NewSession creates a session awaiting an employee ID
func NewSession(source WordSource, recorder Recorder, opts ...Option) *Session {
	s := &Session{
		source:         source,
		recorder:       recorder,
		now:            time.Now,
		state:          StateAwaitingIdentity,
		currentLevel:   1,
		chances:        models.MaxChances,
		guessedLetters: make(map[byte]bool),
		correctLetters: make(map[byte]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddObserver registers an observer for subsequent events
func (s *Session) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// EmployeeID returns the identity fixed by SubmitIdentity
func (s *Session) EmployeeID() string {
	return s.employeeID
}

// Chances returns the remaining incorrect guesses allowed
func (s *Session) Chances() int {
	return s.chances
}

// CurrentLevel returns the level being played
func (s *Session) CurrentLevel() int {
	return s.currentLevel
}

// SubmitIdentity fixes the employee ID and moves to Idle
func (s *Session) SubmitIdentity(rawID string) error {
	if s.state != StateAwaitingIdentity {
		return fmt.Errorf("submit identity in state %s: %w", s.state, ErrInvalidTransition)
	}

	id, err := validation.NormalizeEmployeeID(rawID)
	if err != nil {
		return err
	}

	s.employeeID = id
	s.sessionStartTime = s.now()
	s.state = StateIdle
	s.notify(Event{Type: EventIdentity})
	return nil
}

// StartGame loads level 1 and begins guessing
func (s *Session) StartGame(ctx context.Context) error {
	if s.state != StateIdle {
		return fmt.Errorf("start game in state %s: %w", s.state, ErrInvalidTransition)
	}

	entry, err := s.source.GetLevel(ctx, 1)
	if err != nil {
		return fmt.Errorf("load level 1: %w", err)
	}

	s.loadLevel(1, entry)
	return nil
}

// GuessLetter applies one letter guess. Guesses outside Guessing, repeats and guesses
// with no chances left are ignored. A malformed letter is a validation error.
func (s *Session) GuessLetter(ctx context.Context, raw string) (GuessOutcome, error) {
	letter, err := validation.NormalizeLetter(raw)
	if err != nil {
		return GuessIgnored, err
	}

	if s.state != StateGuessing || s.guessedLetters[letter] || s.chances <= 0 {
		return GuessIgnored, nil
	}

	s.guessedLetters[letter] = true

	if strings.IndexByte(s.currentWord, letter) >= 0 {
		s.correctLetters[letter] = true
		s.notify(Event{Type: EventGuess, Letter: string(letter), Correct: true})

		if !s.isWordComplete() {
			return GuessCorrect, nil
		}
		return GuessLevelComplete, s.completeLevel(ctx)
	}

	s.chances--
	s.notify(Event{Type: EventGuess, Letter: string(letter), Correct: false})

	if s.chances > 0 {
		return GuessIncorrect, nil
	}
	return GuessLevelFailed, s.failLevel(ctx)
}

// AdvanceLevel moves from a completed level to the next one
func (s *Session) AdvanceLevel(ctx context.Context) error {
	if s.state != StateLevelComplete || s.currentLevel >= models.MaxLevels {
		return fmt.Errorf("advance level in state %s: %w", s.state, ErrInvalidTransition)
	}

	next := s.currentLevel + 1
	entry, err := s.source.GetLevel(ctx, next)
	if err != nil {
		return fmt.Errorf("load level %d: %w", next, err)
	}

	s.loadLevel(next, entry)
	return nil
}

// ExitSession ends the visit. Exiting mid-level emits an exited-early result;
// from any other state it only resets.
func (s *Session) ExitSession(ctx context.Context) (*models.LevelResult, error) {
	if s.state == StateExited {
		return nil, nil
	}

	var (
		result *models.LevelResult
		recErr error
	)
	if s.state == StateGuessing {
		r := s.newResult(false, true, models.MaxChances-s.chances)
		result = &r
	}

	s.state = StateExited
	s.notify(Event{Type: EventExited, Result: result})

	if result != nil {
		recErr = s.record(ctx, *result)
	}
	return result, recErr
}

func (s *Session) loadLevel(level int, entry models.WordEntry) {
	s.currentLevel = level
	s.chances = models.MaxChances
	s.guessedLetters = make(map[byte]bool)
	s.correctLetters = make(map[byte]bool)
	s.currentWord = strings.ToUpper(entry.Word)
	s.currentHint = entry.Hint
	s.state = StateGuessing
	s.notify(Event{Type: EventLevelStarted})
}

func (s *Session) isWordComplete() bool {
	for i := 0; i < len(s.currentWord); i++ {
		if !s.correctLetters[s.currentWord[i]] {
			return false
		}
	}
	return true
}

func (s *Session) completeLevel(ctx context.Context) error {
	result := s.newResult(true, false, models.MaxChances-s.chances)

	if result.GameCompleted {
		s.state = StateSessionEnded
		s.notify(Event{Type: EventLevelComplete, Result: &result})
		s.notify(Event{Type: EventSessionEnded})
	} else {
		s.state = StateLevelComplete
		s.notify(Event{Type: EventLevelComplete, Result: &result})
	}

	return s.record(ctx, result)
}

func (s *Session) failLevel(ctx context.Context) error {
	result := s.newResult(false, false, models.MaxChances)
	s.state = StateLevelFailed
	s.notify(Event{Type: EventLevelFailed, Result: &result})
	return s.record(ctx, result)
}

func (s *Session) newResult(completed, exitedEarly bool, attempts int) models.LevelResult {
	end := s.now()
	return models.LevelResult{
		EmployeeID:    s.employeeID,
		Level:         s.currentLevel,
		Word:          s.currentWord,
		AttemptsUsed:  attempts,
		Completed:     completed,
		GameCompleted: completed && s.currentLevel == models.MaxLevels,
		ExitedEarly:   exitedEarly,
		StartTime:     s.sessionStartTime,
		EndTime:       end,
		Timestamp:     end,
	}
}

func (s *Session) record(ctx context.Context, result models.LevelResult) error {
	if s.recorder == nil {
		return nil
	}
	if err := s.recorder.Record(ctx, result); err != nil {
		return fmt.Errorf("record level %d result: %w", result.Level, err)
	}
	return nil
}

// Snapshot is a read-only view of a session for rendering
type Snapshot struct {
	State          State    `json:"state"`
	EmployeeID     string   `json:"employeeId,omitempty"`
	Level          int      `json:"level"`
	MaxLevels      int      `json:"maxLevels"`
	Chances        int      `json:"chances"`
	MaxChances     int      `json:"maxChances"`
	MaskedWord     string   `json:"maskedWord,omitempty"`
	Hint           string   `json:"hint,omitempty"`
	GuessedLetters []string `json:"guessedLetters"`
	CorrectLetters []string `json:"correctLetters"`
	Word           string   `json:"word,omitempty"`
}

// Snapshot returns the current view. The word is only revealed once the level has ended.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:          s.state,
		EmployeeID:     s.employeeID,
		Level:          s.currentLevel,
		MaxLevels:      models.MaxLevels,
		Chances:        s.chances,
		MaxChances:     models.MaxChances,
		GuessedLetters: sortedLetters(s.guessedLetters),
		CorrectLetters: sortedLetters(s.correctLetters),
	}

	if s.currentWord != "" && s.state != StateExited {
		snap.MaskedWord = s.maskedWord()
		snap.Hint = s.currentHint
	}

	switch s.state {
	case StateLevelComplete, StateLevelFailed, StateSessionEnded:
		snap.Word = s.currentWord
	}

	return snap
}

func (s *Session) maskedWord() string {
	var b strings.Builder
	for i := 0; i < len(s.currentWord); i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		if s.correctLetters[s.currentWord[i]] {
			b.WriteByte(s.currentWord[i])
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func sortedLetters(set map[byte]bool) []string {
	letters := make([]string, 0, len(set))
	for l := range set {
		letters = append(letters, string(l))
	}
	sort.Strings(letters)
	return letters
}
