package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"hangmantrainer/internal/models"
)

// MinEmployeeIDLength is the shortest accepted employee ID after trimming
const MinEmployeeIDLength = 3

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NormalizeEmployeeID trims and uppercases a raw ID, then checks its length in characters
func NormalizeEmployeeID(raw string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if id == "" {
		return "", ValidationError{Field: "employeeId", Message: "Please enter your Employee ID"}
	}
	if utf8.RuneCountInString(id) < MinEmployeeIDLength {
		return "", ValidationError{Field: "employeeId", Message: fmt.Sprintf("Employee ID must be at least %d characters", MinEmployeeIDLength)}
	}
	return id, nil
}

// NormalizeLetter returns the uppercase form of a single A-Z letter
func NormalizeLetter(raw string) (byte, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) != 1 || !isUpperLetter(s[0]) {
		return 0, ValidationError{Field: "letter", Message: "guess must be a single letter A-Z"}
	}
	return s[0], nil
}

// NormalizeWordEntries checks that entries cover levels 1..MaxLevels exactly once
// with a letters-only word and a hint each. The returned slice is ordered by level
// with words uppercased and both fields trimmed.
func NormalizeWordEntries(entries []models.WordEntry) ([]models.WordEntry, error) {
	if len(entries) != models.MaxLevels {
		return nil, ValidationError{Field: "entries", Message: fmt.Sprintf("exactly %d levels are required, got %d", models.MaxLevels, len(entries))}
	}

	out := make([]models.WordEntry, models.MaxLevels)
	seen := make(map[int]bool, models.MaxLevels)
	for _, e := range entries {
		if e.Level < 1 || e.Level > models.MaxLevels {
			return nil, ValidationError{Field: "level", Message: fmt.Sprintf("level %d is outside 1..%d", e.Level, models.MaxLevels)}
		}
		if seen[e.Level] {
			return nil, ValidationError{Field: "level", Message: fmt.Sprintf("level %d is listed more than once", e.Level)}
		}
		seen[e.Level] = true

		word := strings.ToUpper(strings.TrimSpace(e.Word))
		hint := strings.TrimSpace(e.Hint)
		if word == "" || hint == "" {
			return nil, ValidationError{Field: "entries", Message: fmt.Sprintf("Please fill in both word and hint for Level %d", e.Level)}
		}
		if !IsWord(word) {
			return nil, ValidationError{Field: "word", Message: fmt.Sprintf("word for Level %d must contain only letters A-Z", e.Level)}
		}

		out[e.Level-1] = models.WordEntry{Level: e.Level, Word: word, Hint: hint}
	}

	return out, nil
}

// IsWord reports whether s is non-empty and made only of the letters A-Z
func IsWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isUpperLetter(s[i]) {
			return false
		}
	}
	return true
}

func isUpperLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
