package normalizer

import "regexp"

// Word edges are spelled out instead of using \b, which is ASCII-only in RE2
// and would split "tablèt" or "èdtan".
const (
	wordStart = `(?:^|[^\p{L}\p{N}])`
	wordEnd   = `(?:[^\p{L}\p{N}]|$)`
)

func bounded(alternatives string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + wordStart + `(?:` + alternatives + `)` + wordEnd)
}

var (
	quantityUnitRe = bounded(
		`(?:\d+(?:[.,]\d+)?\s*|(?:yon|de|twa|kat|senk|demi|one|two|three|four|half)\s+)` +
			`(?:mg|mcg|µg|g|ml|cc|units?|inite|linite|tablets?|tablèt|pills?|grenn|` +
			`capsules?|kapsil|drops?|gout|teaspoons?|tablespoons?|kiyè|puffs?)`)

	frequencyRe = bounded(
		`chak\s+\d+\s*(?:è|e)dtan` +
			`|every\s+\d+\s*(?:hours?|hrs?|h)` +
			`|\d+\s*(?:times?|fwa)\s+(?:per|a|pa|chak)\s+(?:day|jou)` +
			`|(?:once|twice|thrice|three\s+times|four\s+times)\s+(?:a\s+day|per\s+day|daily)` +
			`|(?:yon|de|twa|kat)\s+fwa\s+(?:pa|chak)\s+jou` +
			`|daily|per\s+day|a\s+day|pa\s+jou|chak\s+jou|chak\s+maten|chak\s+swa` +
			`|every\s+(?:morning|evening|night)|at\s+bedtime` +
			`|q\d+h`)
)

// DetectDosagePattern reports whether text reads like a medication
// instruction: a quantity with a unit and a frequency must both be present.
// It is a heuristic used to flag records for review, not a parser.
func (n *Normalizer) DetectDosagePattern(text string) bool {
	normalized := n.Normalize(text)
	if normalized == "" {
		return false
	}
	return quantityUnitRe.MatchString(normalized) && frequencyRe.MatchString(normalized)
}
