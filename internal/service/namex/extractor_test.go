package namex

import (
	"strings"
	"testing"

	"meeting-transcription-service/internal/models"
)

func TestExtract_SpelledLetters(t *testing.T) {
	tests := []struct {
		input string
		name  string
	}{
		{"J-O-H-N", "John"},
		{"S A R A H", "Sarah"},
		{"jay oh aitch en", "John"},
		{"it's spelled em, ay, ar, why", "Mary"},
		{"double-you ee en", "Wen"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Extract(tt.input)
			if !ok {
				t.Fatalf("Extract(%q) returned no result", tt.input)
			}
			if got.Name != tt.name {
				t.Errorf("name = %q, want %q", got.Name, tt.name)
			}
			if got.Confidence != models.NameConfidenceHigh {
				t.Errorf("confidence = %q, want high", got.Confidence)
			}
			if got.Method != models.NameMethodSpelled {
				t.Errorf("method = %q, want spelled", got.Method)
			}
		})
	}
}

func TestExtract_SpelledRequiresTwoLetters(t *testing.T) {
	got, ok := Extract("my name is J")
	if !ok {
		t.Fatal("expected a result")
	}
	if got.Method == models.NameMethodSpelled {
		t.Errorf("single letter must not count as spelled, got %+v", got)
	}
}

func TestExtract_NATO(t *testing.T) {
	tests := []struct {
		input string
		name  string
	}{
		{"Juliet Oscar Hotel November", "John"},
		{"alpha november november alpha", "Anna"},
		{"it's tango oscar mike", "Tom"},
		{"apple bob echo", "Abe"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Extract(tt.input)
			if !ok {
				t.Fatalf("Extract(%q) returned no result", tt.input)
			}
			if got.Name != tt.name {
				t.Errorf("name = %q, want %q", got.Name, tt.name)
			}
			if got.Confidence != models.NameConfidenceHigh {
				t.Errorf("confidence = %q, want high", got.Confidence)
			}
			if got.Method != models.NameMethodNATO {
				t.Errorf("method = %q, want nato", got.Method)
			}
		})
	}
}

func TestExtract_NATORunResetsOnNonMatch(t *testing.T) {
	// "sierra" alone is a run of one after the reset; no NATO result.
	got, ok := Extract("bravo stop sierra")
	if ok && got.Method == models.NameMethodNATO {
		t.Errorf("interrupted run must not match, got %+v", got)
	}
}

func TestExtract_Phonetic(t *testing.T) {
	tests := []struct {
		input string
		name  string
	}{
		{"My name is Sarah, thanks", "Sarah"},
		{"my name is sarah", "Sarah"},
		{"I'm David", "David"},
		{"this is Mary Jane speaking", "Mary Jane"},
		{"they call me Otis", "Otis"},
		{"hi, my name is Priya", "Priya"},
		{"call me Ishmael here", "Ishmael"},
		{"my name is Anna and I run the team", "Anna"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Extract(tt.input)
			if !ok {
				t.Fatalf("Extract(%q) returned no result", tt.input)
			}
			if got.Name != tt.name {
				t.Errorf("name = %q, want %q", got.Name, tt.name)
			}
			if got.Confidence != models.NameConfidenceMedium {
				t.Errorf("confidence = %q, want medium", got.Confidence)
			}
			if got.Method != models.NameMethodPhonetic {
				t.Errorf("method = %q, want phonetic", got.Method)
			}
		})
	}
}

func TestExtract_LastResort(t *testing.T) {
	got, ok := Extract("Gabriela")
	if !ok {
		t.Fatal("expected a result")
	}
	if got.Name != "Gabriela" {
		t.Errorf("name = %q, want Gabriela", got.Name)
	}
	if got.Confidence != models.NameConfidenceLow {
		t.Errorf("confidence = %q, want low", got.Confidence)
	}
	if got.Method != models.NameMethodPhonetic {
		t.Errorf("method = %q, want phonetic", got.Method)
	}
}

func TestExtract_Empty(t *testing.T) {
	if _, ok := Extract(""); ok {
		t.Error("expected no result for empty input")
	}
	if _, ok := Extract("   "); ok {
		t.Error("expected no result for blank input")
	}
}

func TestIsValidName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"", false},
		{strings.Repeat("a", 51), false},
		{strings.Repeat("a", 50), true},
		{"John3", false},
		{"Mary-Jane", true},
		{"O'Brien", true},
		{"John Smith", true},
		{"---", false}, // no letter
		{"J", true},
		{"John_Smith", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidName(tt.name); got != tt.valid {
				t.Errorf("IsValidName(%q) = %v, want %v", tt.name, got, tt.valid)
			}
		})
	}
}
