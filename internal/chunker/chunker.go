// Package chunker splits long source paragraphs into sentence-sized pieces,
// so each piece is shielded, translated and cached on its own.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultMaxRunes is the piece size used by the translate command.
const DefaultMaxRunes = 400

// abbreviations end in a period without ending a sentence.
var abbreviations = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "st": true,
	"no": true, "vs": true, "approx": true, "tab": true, "caps": true,
	"e.g": true, "i.e": true, "etc": true,
}

// Chunk splits text into trimmed pieces of at most maxRunes runes. It cuts
// at the last paragraph break that fits, else the last sentence end, else
// the last whitespace, else hard at maxRunes. A period inside a number
// ("2.5 mg") or after a known abbreviation is not a sentence end. maxRunes
// <= 0 disables splitting.
func Chunk(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return []string{text}
	}

	var chunks []string
	for len(runes) > maxRunes {
		cut := findCut(runes, maxRunes)
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			chunks = append(chunks, piece)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	if rest := string(runes); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

// findCut returns the rune index to cut at; it is never above limit.
func findCut(runes []rune, limit int) int {
	for i := limit - 1; i > 0; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	for i := limit - 1; i > 0; i-- {
		if sentenceEnd(runes, i) {
			return i + 1
		}
	}
	for i := limit - 1; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return limit
}

func sentenceEnd(runes []rune, i int) bool {
	switch runes[i] {
	case '.', '!', '?', ';', '…':
	default:
		return false
	}
	if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
		return false
	}
	if runes[i] != '.' {
		return true
	}
	start := i
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	word := strings.ToLower(string(runes[start:i]))
	return !abbreviations[word]
}
