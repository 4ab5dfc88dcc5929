package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Game dimensions
const (
	MaxLevels  = 10
	MaxChances = 5
)

// ISOTimeFormat matches the millisecond ISO-8601 strings the collectors expect
const ISOTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Result status labels used by reports and collectors
const (
	StatusCompleted      = "COMPLETED"
	StatusExitedEarly    = "EXITED EARLY"
	StatusFailed         = "FAILED"
	StatusLevelCompleted = "LEVEL COMPLETED"
)

// WordEntry is the word and hint for one level
type WordEntry struct {
	Level int    `json:"level"`
	Word  string `json:"word"`
	Hint  string `json:"hint"`
}

// LevelResult records how one level attempt ended. It is never mutated after creation.
type LevelResult struct {
	EmployeeID    string
	Level         int
	Word          string
	AttemptsUsed  int
	Completed     bool
	GameCompleted bool
	ExitedEarly   bool
	StartTime     time.Time
	EndTime       time.Time
	Timestamp     time.Time
}

type levelResultJSON struct {
	EmployeeID    string `json:"employeeId"`
	Level         int    `json:"level"`
	Word          string `json:"word"`
	AttemptsUsed  int    `json:"attemptsUsed"`
	Completed     bool   `json:"completed"`
	GameCompleted bool   `json:"gameCompleted"`
	ExitedEarly   bool   `json:"exitedEarly"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	Timestamp     string `json:"timestamp"`
}

// FormatISO renders t in UTC with millisecond precision
func FormatISO(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(ISOTimeFormat)
}

// ParseISO accepts millisecond ISO-8601 and plain RFC 3339 strings
func ParseISO(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(ISOTimeFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// MarshalJSON writes the persisted record format
func (r LevelResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(levelResultJSON{
		EmployeeID:    r.EmployeeID,
		Level:         r.Level,
		Word:          r.Word,
		AttemptsUsed:  r.AttemptsUsed,
		Completed:     r.Completed,
		GameCompleted: r.GameCompleted,
		ExitedEarly:   r.ExitedEarly,
		StartTime:     FormatISO(r.StartTime),
		EndTime:       FormatISO(r.EndTime),
		Timestamp:     FormatISO(r.Timestamp),
	})
}

// UnmarshalJSON reads the persisted record format
func (r *LevelResult) UnmarshalJSON(data []byte) error {
	var raw levelResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	start, err := ParseISO(raw.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseISO(raw.EndTime)
	if err != nil {
		return err
	}
	stamp, err := ParseISO(raw.Timestamp)
	if err != nil {
		return err
	}

	*r = LevelResult{
		EmployeeID:    raw.EmployeeID,
		Level:         raw.Level,
		Word:          raw.Word,
		AttemptsUsed:  raw.AttemptsUsed,
		Completed:     raw.Completed,
		GameCompleted: raw.GameCompleted,
		ExitedEarly:   raw.ExitedEarly,
		StartTime:     start,
		EndTime:       end,
		Timestamp:     stamp,
	}
	return nil
}

// Status returns the label the spreadsheet and reports use for this result
func (r LevelResult) Status() string {
	switch {
	case r.GameCompleted:
		return StatusCompleted
	case r.ExitedEarly:
		return StatusExitedEarly
	case r.Completed:
		return StatusLevelCompleted
	default:
		return StatusFailed
	}
}

// Duration returns the elapsed whole seconds between StartTime and EndTime
func (r LevelResult) Duration() int {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return 0
	}
	return int(r.EndTime.Sub(r.StartTime).Round(time.Second) / time.Second)
}

// IsFailure reports whether the level ended by running out of chances
func (r LevelResult) IsFailure() bool {
	return !r.Completed && !r.ExitedEarly
}
