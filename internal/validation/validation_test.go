package validation

import (
	"errors"
	"fmt"
	"testing"

	"hangmantrainer/internal/models"
)

func TestNormalizeEmployeeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "valid id",
			input: "EMP123",
			want:  "EMP123",
		},
		{
			name:  "trims and uppercases",
			input: "  emp42 ",
			want:  "EMP42",
		},
		{
			name:  "exactly three characters",
			input: "abc",
			want:  "ABC",
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "only spaces",
			input:   "    ",
			wantErr: true,
		},
		{
			name:    "too short",
			input:   "ab",
			wantErr: true,
		},
		{
			name:    "two multibyte characters",
			input:   "äb",
			wantErr: true,
		},
		{
			name:  "three multibyte characters",
			input: "äöü",
			want:  "ÄÖÜ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEmployeeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeEmployeeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				var verr ValidationError
				if !errors.As(err, &verr) || verr.Field != "employeeId" {
					t.Errorf("expected ValidationError on employeeId, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("NormalizeEmployeeID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeLetter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    byte
		wantErr bool
	}{
		{name: "uppercase", input: "A", want: 'A'},
		{name: "lowercase", input: "z", want: 'Z'},
		{name: "padded", input: " q ", want: 'Q'},
		{name: "digit", input: "7", wantErr: true},
		{name: "two letters", input: "ab", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "non ascii", input: "é", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeLetter(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeLetter(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("NormalizeLetter(%q) = %c, want %c", tt.input, got, tt.want)
			}
		})
	}
}

func validEntries() []models.WordEntry {
	entries := make([]models.WordEntry, 0, models.MaxLevels)
	for i := 1; i <= models.MaxLevels; i++ {
		entries = append(entries, models.WordEntry{Level: i, Word: fmt.Sprintf("word%c", 'a'+i), Hint: "a hint"})
	}
	return entries
}

func TestNormalizeWordEntries(t *testing.T) {
	t.Run("valid set is ordered and uppercased", func(t *testing.T) {
		entries := validEntries()
		entries[0], entries[9] = entries[9], entries[0]

		got, err := NormalizeWordEntries(entries)
		if err != nil {
			t.Fatalf("NormalizeWordEntries() error = %v", err)
		}
		for i, e := range got {
			if e.Level != i+1 {
				t.Errorf("position %d has level %d", i, e.Level)
			}
		}
		if got[0].Word != "WORDB" {
			t.Errorf("first word = %q, want WORDB", got[0].Word)
		}
	})

	tests := []struct {
		name   string
		mutate func([]models.WordEntry) []models.WordEntry
	}{
		{"too few", func(e []models.WordEntry) []models.WordEntry { return e[:9] }},
		{"duplicate level", func(e []models.WordEntry) []models.WordEntry { e[1].Level = 1; return e }},
		{"level out of range", func(e []models.WordEntry) []models.WordEntry { e[9].Level = 11; return e }},
		{"empty word", func(e []models.WordEntry) []models.WordEntry { e[3].Word = "  "; return e }},
		{"empty hint", func(e []models.WordEntry) []models.WordEntry { e[4].Hint = ""; return e }},
		{"word with space", func(e []models.WordEntry) []models.WordEntry { e[5].Word = "ICE CREAM"; return e }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeWordEntries(tt.mutate(validEntries()))
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestIsWord(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"JAVASCRIPT", true},
		{"", false},
		{"ICE CREAM", false},
		{"CAFÉ", false},
		{"R2D2", false},
		{"lower", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsWord(tt.in); got != tt.want {
				t.Errorf("IsWord(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
