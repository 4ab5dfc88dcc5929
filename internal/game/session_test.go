package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"hangmantrainer/internal/models"
	"hangmantrainer/internal/validation"
)

type stubSource struct {
	words map[int]models.WordEntry
	err   error
}

func (s *stubSource) GetLevel(_ context.Context, level int) (models.WordEntry, error) {
	if s.err != nil {
		return models.WordEntry{}, s.err
	}
	e, ok := s.words[level]
	if !ok {
		return models.WordEntry{}, fmt.Errorf("level %d not configured", level)
	}
	return e, nil
}

// sameWordSource returns word for every level
func sameWordSource(word string) *stubSource {
	words := make(map[int]models.WordEntry, models.MaxLevels)
	for i := 1; i <= models.MaxLevels; i++ {
		words[i] = models.WordEntry{Level: i, Word: word, Hint: "hint"}
	}
	return &stubSource{words: words}
}

type captureRecorder struct {
	results []models.LevelResult
	err     error
}

func (c *captureRecorder) Record(_ context.Context, r models.LevelResult) error {
	c.results = append(c.results, r)
	return c.err
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newPlaying(t *testing.T, word string) (*Session, *captureRecorder) {
	t.Helper()
	rec := &captureRecorder{}
	s := NewSession(sameWordSource(word), rec, WithClock(fixedClock()))
	if err := s.SubmitIdentity("emp001"); err != nil {
		t.Fatalf("SubmitIdentity() error = %v", err)
	}
	if err := s.StartGame(context.Background()); err != nil {
		t.Fatalf("StartGame() error = %v", err)
	}
	return s, rec
}

func guessAll(t *testing.T, s *Session, letters string) {
	t.Helper()
	for _, l := range letters {
		if _, err := s.GuessLetter(context.Background(), string(l)); err != nil {
			t.Fatalf("GuessLetter(%c) error = %v", l, err)
		}
	}
}

func checkInvariants(t *testing.T, s *Session) {
	t.Helper()
	for l := range s.correctLetters {
		if !s.guessedLetters[l] {
			t.Fatalf("correct letter %c not in guessed set", l)
		}
	}
	wrong := len(s.guessedLetters) - len(s.correctLetters)
	if s.chances != models.MaxChances-wrong {
		t.Fatalf("chances = %d, want %d", s.chances, models.MaxChances-wrong)
	}
}

func TestSubmitIdentity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "normalizes", input: "  emp42 ", want: "EMP42"},
		{name: "empty", input: "", wantErr: true},
		{name: "too short", input: "ab", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(sameWordSource("CAT"), nil)
			err := s.SubmitIdentity(tt.input)
			if tt.wantErr {
				var verr validation.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if s.State() != StateAwaitingIdentity {
					t.Errorf("state = %s, want unchanged", s.State())
				}
				return
			}
			if err != nil {
				t.Fatalf("SubmitIdentity() error = %v", err)
			}
			if s.EmployeeID() != tt.want || s.State() != StateIdle {
				t.Errorf("got id %q state %s", s.EmployeeID(), s.State())
			}
		})
	}
}

func TestSubmitIdentityTwice(t *testing.T) {
	s := NewSession(sameWordSource("CAT"), nil)
	if err := s.SubmitIdentity("EMP001"); err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitIdentity("EMP002"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if s.EmployeeID() != "EMP001" {
		t.Errorf("employee id changed to %q", s.EmployeeID())
	}
}

func TestStartGameRequiresIdle(t *testing.T) {
	s := NewSession(sameWordSource("CAT"), nil)
	if err := s.StartGame(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStartGameLoadFailureKeepsState(t *testing.T) {
	src := &stubSource{err: errors.New("boom")}
	s := NewSession(src, nil)
	_ = s.SubmitIdentity("EMP001")

	if err := s.StartGame(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.State() != StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
}

func TestCompletesRegardlessOfOrder(t *testing.T) {
	orders := []string{"TAC", "CAT", "ACT", "CTA"}
	for _, order := range orders {
		t.Run(order, func(t *testing.T) {
			s, rec := newPlaying(t, "CAT")
			for i, l := range order {
				outcome, err := s.GuessLetter(context.Background(), string(l))
				if err != nil {
					t.Fatal(err)
				}
				checkInvariants(t, s)
				if i < 2 && outcome != GuessCorrect {
					t.Errorf("guess %d outcome = %s, want correct", i, outcome)
				}
				if i == 2 && outcome != GuessLevelComplete {
					t.Errorf("final outcome = %s, want level_complete", outcome)
				}
			}
			if s.State() != StateLevelComplete {
				t.Errorf("state = %s", s.State())
			}
			if len(rec.results) != 1 {
				t.Fatalf("emitted %d results, want 1", len(rec.results))
			}
			r := rec.results[0]
			if !r.Completed || r.GameCompleted || r.ExitedEarly || r.AttemptsUsed != 0 {
				t.Errorf("unexpected result %+v", r)
			}
		})
	}
}

func TestRepeatedLetters(t *testing.T) {
	s, rec := newPlaying(t, "ABC")

	guessAll(t, s, "AXXAxa")
	if s.Chances() != models.MaxChances-1 {
		t.Errorf("chances = %d, want %d", s.Chances(), models.MaxChances-1)
	}
	checkInvariants(t, s)

	outcome, _ := s.GuessLetter(context.Background(), "X")
	if outcome != GuessIgnored {
		t.Errorf("repeat outcome = %s, want ignored", outcome)
	}

	guessAll(t, s, "YBC")
	if len(rec.results) != 1 {
		t.Fatalf("emitted %d results", len(rec.results))
	}
	if rec.results[0].AttemptsUsed != 2 {
		t.Errorf("attemptsUsed = %d, want 2 distinct incorrect letters", rec.results[0].AttemptsUsed)
	}
}

func TestExhaustingChances(t *testing.T) {
	s, rec := newPlaying(t, "DOG")

	for i, l := range "XYZQW" {
		outcome, err := s.GuessLetter(context.Background(), string(l))
		if err != nil {
			t.Fatal(err)
		}
		checkInvariants(t, s)
		want := GuessIncorrect
		if i == 4 {
			want = GuessLevelFailed
		}
		if outcome != want {
			t.Errorf("guess %c outcome = %s, want %s", l, outcome, want)
		}
	}

	if s.State() != StateLevelFailed {
		t.Fatalf("state = %s, want level_failed", s.State())
	}
	if len(rec.results) != 1 {
		t.Fatalf("emitted %d results", len(rec.results))
	}
	r := rec.results[0]
	if r.Completed || r.ExitedEarly || r.AttemptsUsed != models.MaxChances {
		t.Errorf("unexpected result %+v", r)
	}
	if r.Status() != models.StatusFailed {
		t.Errorf("status = %s", r.Status())
	}

	if outcome, _ := s.GuessLetter(context.Background(), "D"); outcome != GuessIgnored {
		t.Errorf("guess after failure outcome = %s", outcome)
	}
	if err := s.AdvanceLevel(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("advance after failure err = %v", err)
	}
}

func TestMalformedLetter(t *testing.T) {
	s, _ := newPlaying(t, "CAT")
	before := s.Snapshot()

	_, err := s.GuessLetter(context.Background(), "1")
	var verr validation.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	after := s.Snapshot()
	if after.Chances != before.Chances || len(after.GuessedLetters) != 0 {
		t.Errorf("state changed on malformed letter: %+v", after)
	}
}

func TestPlayAllLevels(t *testing.T) {
	s, rec := newPlaying(t, "GO")

	for level := 1; level <= models.MaxLevels; level++ {
		if s.CurrentLevel() != level {
			t.Fatalf("level = %d, want %d", s.CurrentLevel(), level)
		}
		guessAll(t, s, "GO")
		if level < models.MaxLevels {
			if s.State() != StateLevelComplete {
				t.Fatalf("level %d state = %s", level, s.State())
			}
			if err := s.AdvanceLevel(context.Background()); err != nil {
				t.Fatalf("AdvanceLevel() error = %v", err)
			}
			if s.Chances() != models.MaxChances || len(s.guessedLetters) != 0 {
				t.Fatalf("level %d not reset", level+1)
			}
		}
	}

	if s.State() != StateSessionEnded {
		t.Fatalf("state = %s, want session_ended", s.State())
	}
	if len(rec.results) != models.MaxLevels {
		t.Fatalf("emitted %d results", len(rec.results))
	}
	last := rec.results[len(rec.results)-1]
	if !last.GameCompleted || last.Level != models.MaxLevels {
		t.Errorf("last result %+v", last)
	}
	for _, r := range rec.results[:models.MaxLevels-1] {
		if r.GameCompleted {
			t.Errorf("level %d marked gameCompleted", r.Level)
		}
	}
	if err := s.AdvanceLevel(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("advance after final level err = %v", err)
	}
}

func TestExitSession(t *testing.T) {
	t.Run("mid level emits one exited result", func(t *testing.T) {
		s, rec := newPlaying(t, "CAT")
		guessAll(t, s, "XC")

		result, err := s.ExitSession(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if result == nil || len(rec.results) != 1 {
			t.Fatalf("expected exactly one result, got %v / %d", result, len(rec.results))
		}
		r := rec.results[0]
		if !r.ExitedEarly || r.Completed || r.AttemptsUsed != 1 || r.Word != "CAT" {
			t.Errorf("unexpected result %+v", r)
		}
		if s.State() != StateExited {
			t.Errorf("state = %s", s.State())
		}
	})

	t.Run("outside guessing emits nothing", func(t *testing.T) {
		states := map[string]func(t *testing.T) (*Session, *captureRecorder){
			"awaiting identity": func(t *testing.T) (*Session, *captureRecorder) {
				rec := &captureRecorder{}
				return NewSession(sameWordSource("CAT"), rec), rec
			},
			"level complete": func(t *testing.T) (*Session, *captureRecorder) {
				s, rec := newPlaying(t, "CAT")
				guessAll(t, s, "CAT")
				rec.results = nil
				return s, rec
			},
		}
		for name, setup := range states {
			t.Run(name, func(t *testing.T) {
				s, rec := setup(t)
				result, err := s.ExitSession(context.Background())
				if err != nil || result != nil || len(rec.results) != 0 {
					t.Errorf("got result %v err %v emitted %d", result, err, len(rec.results))
				}
				if s.State() != StateExited {
					t.Errorf("state = %s", s.State())
				}
			})
		}
	})

	t.Run("second exit is a no-op", func(t *testing.T) {
		s, rec := newPlaying(t, "CAT")
		_, _ = s.ExitSession(context.Background())
		_, _ = s.ExitSession(context.Background())
		if len(rec.results) != 1 {
			t.Errorf("emitted %d results", len(rec.results))
		}
	})
}

func TestRecorderErrorKeepsTransition(t *testing.T) {
	s, rec := newPlaying(t, "AB")
	rec.err = errors.New("disk full")

	outcome, err := s.GuessLetter(context.Background(), "A")
	if err != nil || outcome != GuessCorrect {
		t.Fatalf("outcome %s err %v", outcome, err)
	}
	outcome, err = s.GuessLetter(context.Background(), "B")
	if err == nil {
		t.Fatal("expected recorder error")
	}
	if outcome != GuessLevelComplete || s.State() != StateLevelComplete {
		t.Errorf("outcome %s state %s", outcome, s.State())
	}
}

func TestResultTimes(t *testing.T) {
	s, rec := newPlaying(t, "A")
	guessAll(t, s, "A")

	r := rec.results[0]
	if r.StartTime.IsZero() || !r.EndTime.After(r.StartTime) || !r.Timestamp.Equal(r.EndTime) {
		t.Errorf("unexpected times %+v", r)
	}
	if r.EmployeeID != "EMP001" {
		t.Errorf("employee id = %q", r.EmployeeID)
	}
}

func TestSnapshotMasksWord(t *testing.T) {
	s, _ := newPlaying(t, "CAT")
	guessAll(t, s, "A")

	snap := s.Snapshot()
	if snap.MaskedWord != "_ A _" {
		t.Errorf("masked = %q", snap.MaskedWord)
	}
	if snap.Word != "" {
		t.Errorf("word revealed mid level: %q", snap.Word)
	}

	guessAll(t, s, "XYZQW")
	snap = s.Snapshot()
	if snap.Word != "CAT" || snap.State != StateLevelFailed {
		t.Errorf("snapshot after failure %+v", snap)
	}
}

func TestObserverSeesTransitions(t *testing.T) {
	var types []string
	obs := ObserverFunc(func(e Event) {
		types = append(types, string(e.Type))
	})

	s := NewSession(sameWordSource("HI"), nil, WithObserver(obs))
	_ = s.SubmitIdentity("EMP001")
	_ = s.StartGame(context.Background())
	guessAll(t, s, "XHI")
	_, _ = s.ExitSession(context.Background())

	got := strings.Join(types, ",")
	want := "identity,level_started,guess,guess,guess,level_complete,exited"
	if got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}
