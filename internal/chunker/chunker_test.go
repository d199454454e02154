package chunker_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/kalimax/kalimax/internal/chunker"
)

func TestChunk_ShortText(t *testing.T) {
	text := "Pran 2 grenn chak 6 èdtan."
	chunks := chunker.Chunk(text, 100)
	if !slices.Equal(chunks, []string{text}) {
		t.Errorf("expected single chunk, got %q", chunks)
	}
}

func TestChunk_Unlimited(t *testing.T) {
	text := strings.Repeat("mo ", 500)
	if chunks := chunker.Chunk(text, 0); len(chunks) != 1 {
		t.Errorf("expected 1 chunk when maxRunes=0, got %d", len(chunks))
	}
}

func TestChunk_EmptyText(t *testing.T) {
	if chunks := chunker.Chunk("  \n ", 10); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %q", chunks)
	}
}

func TestChunk_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		max      int
		expected []string
	}{
		{
			name:     "paragraph",
			text:     "First paragraph here.\n\nSecond paragraph here.",
			max:      30,
			expected: []string{"First paragraph here.", "Second paragraph here."},
		},
		{
			name:     "sentence",
			text:     "Take one tablet. Drink water. Rest well.",
			max:      32,
			expected: []string{"Take one tablet. Drink water.", "Rest well."},
		},
		{
			name:     "decimal is not a sentence end",
			text:     "Give 2.5 ml now and again later",
			max:      12,
			expected: []string{"Give 2.5 ml", "now and", "again later"},
		},
		{
			name:     "abbreviation is not a sentence end",
			text:     "See Dr. Pierre today. Bring the card.",
			max:      25,
			expected: []string{"See Dr. Pierre today.", "Bring the card."},
		},
		{
			name:     "hard cut",
			text:     "abcdefghij",
			max:      4,
			expected: []string{"abcd", "efgh", "ij"},
		},
		{
			name:     "multibyte runes",
			text:     "Lè ou santi doulè. Rele doktè.",
			max:      20,
			expected: []string{"Lè ou santi doulè.", "Rele doktè."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunker.Chunk(tt.text, tt.max)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("Chunk(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.expected)
			}
			for _, c := range got {
				if n := len([]rune(c)); n > tt.max {
					t.Errorf("chunk %q has %d runes, max %d", c, n, tt.max)
				}
			}
		})
	}
}

func TestChunk_ReconstructsWords(t *testing.T) {
	text := "Bwè anpil dlo. Pa bliye pran medikaman ou chak maten. Si lafyèv la pa bese, retounen lopital la."
	chunks := chunker.Chunk(text, 30)
	if got := strings.Join(chunks, " "); got != text {
		t.Errorf("rejoined text differs:\n  got:  %q\n  want: %q", got, text)
	}
}
