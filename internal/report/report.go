// Package report renders results as the plain-text documents handed to players and administrators.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"hangmantrainer/internal/models"
)

// DisplayTimeFormat is used for every human-readable time in reports
const DisplayTimeFormat = "2006-01-02 15:04:05 MST"

// Summary holds aggregate statistics over a result list
type Summary struct {
	TotalGames       int `json:"totalGames"`
	FullyCompleted   int `json:"fullyCompleted"`
	Failed           int `json:"failed"`
	ExitedEarly      int `json:"exitedEarly"`
	UniquePlayers    int `json:"uniquePlayers"`
	CompletedPercent int `json:"completedPercent"`
	FailedPercent    int `json:"failedPercent"`
	ExitedPercent    int `json:"exitedPercent"`
}

// Summarize computes statistics over results
func Summarize(results []models.LevelResult) Summary {
	s := Summary{
		TotalGames:     len(results),
		FullyCompleted: lo.CountBy(results, func(r models.LevelResult) bool { return r.GameCompleted }),
		Failed:         lo.CountBy(results, func(r models.LevelResult) bool { return r.IsFailure() }),
		ExitedEarly:    lo.CountBy(results, func(r models.LevelResult) bool { return r.ExitedEarly }),
		UniquePlayers:  len(employeeOrder(results)),
	}
	s.CompletedPercent = percent(s.FullyCompleted, s.TotalGames)
	s.FailedPercent = percent(s.Failed, s.TotalGames)
	s.ExitedPercent = percent(s.ExitedEarly, s.TotalGames)
	return s
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}

// employeeOrder lists employee IDs in order of first appearance
func employeeOrder(results []models.LevelResult) []string {
	return lo.Uniq(lo.Map(results, func(r models.LevelResult, _ int) string { return r.EmployeeID }))
}

// StatusLabel is the outcome wording used in the text reports
func StatusLabel(r models.LevelResult) string {
	if r.GameCompleted {
		return "ALL LEVELS COMPLETED"
	}
	return r.Status()
}

func displayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(DisplayTimeFormat)
}

// FormatResult renders a single result
func FormatResult(r models.LevelResult) string {
	var b strings.Builder
	b.WriteString("\n=== HANGMAN GAME RESULT ===\n")
	fmt.Fprintf(&b, "Employee ID: %s\n", r.EmployeeID)
	fmt.Fprintf(&b, "Date: %s\n", displayTime(r.Timestamp))
	fmt.Fprintf(&b, "Level Reached: %d / %d\n", r.Level, models.MaxLevels)
	fmt.Fprintf(&b, "Last Word: %s\n", r.Word)
	fmt.Fprintf(&b, "Game Status: %s\n", StatusLabel(r))
	fmt.Fprintf(&b, "Attempts Used (Last Level): %d / %d\n", r.AttemptsUsed, models.MaxChances)
	fmt.Fprintf(&b, "Game Duration: %d seconds\n", r.Duration())
	fmt.Fprintf(&b, "Start Time: %s\n", displayTime(r.StartTime))
	fmt.Fprintf(&b, "End Time: %s\n", displayTime(r.EndTime))
	b.WriteString("============================\n")
	return b.String()
}

// ResultFilename names the file for a single result
func ResultFilename(r models.LevelResult) string {
	return fmt.Sprintf("hangman_result_%s_%s.txt", SafeName(r.EmployeeID), r.Timestamp.UTC().Format("2006-01-02"))
}

// SafeName maps every byte outside [A-Za-z0-9_-] to '_' so an employee ID can be used
// as a single path element
func SafeName(id string) string {
	b := []byte(id)
	for i, c := range b {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			b[i] = '_'
		}
	}
	if len(b) == 0 {
		return "_"
	}
	return string(b)
}

// ConsolidatedFilename names the all-players report generated at t
func ConsolidatedFilename(t time.Time) string {
	return fmt.Sprintf("hangman_all_results_%s.txt", t.UTC().Format("2006-01-02"))
}

// Consolidated renders every result grouped by employee followed by statistics
func Consolidated(results []models.LevelResult, generated time.Time) string {
	var b strings.Builder
	b.WriteString("HANGMAN GAME - ALL PLAYER RESULTS\n")
	fmt.Fprintf(&b, "Generated: %s\n", displayTime(generated))
	fmt.Fprintf(&b, "Total Games: %d\n", len(results))
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 50))

	byEmployee := lo.GroupBy(results, func(r models.LevelResult) string { return r.EmployeeID })
	for _, id := range employeeOrder(results) {
		fmt.Fprintf(&b, "EMPLOYEE: %s\n", id)
		fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 30))

		for i, r := range byEmployee[id] {
			fmt.Fprintf(&b, "Game %d:\n", i+1)
			fmt.Fprintf(&b, "  Date: %s\n", displayTime(r.Timestamp))
			fmt.Fprintf(&b, "  Level Reached: %d / %d\n", r.Level, models.MaxLevels)
			fmt.Fprintf(&b, "  Last Word: %s\n", r.Word)
			fmt.Fprintf(&b, "  Status: %s\n", StatusLabel(r))
			fmt.Fprintf(&b, "  Attempts (Last Level): %d / %d\n", r.AttemptsUsed, models.MaxChances)
			fmt.Fprintf(&b, "  Duration: %d seconds\n", r.Duration())
			fmt.Fprintf(&b, "  Started: %s\n", displayTime(r.StartTime))
			fmt.Fprintf(&b, "  Ended: %s\n\n", displayTime(r.EndTime))
		}
		b.WriteString("\n")
	}

	s := Summarize(results)
	b.WriteString("\nSTATISTICS:\n")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 20))
	fmt.Fprintf(&b, "Total Games: %d\n", s.TotalGames)
	fmt.Fprintf(&b, "Fully Completed: %d (%d%%)\n", s.FullyCompleted, s.CompletedPercent)
	fmt.Fprintf(&b, "Failed: %d (%d%%)\n", s.Failed, s.FailedPercent)
	fmt.Fprintf(&b, "Exited Early: %d (%d%%)\n", s.ExitedEarly, s.ExitedPercent)
	fmt.Fprintf(&b, "Unique Players: %d\n", s.UniquePlayers)
	return b.String()
}
