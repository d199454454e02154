// Package placeholder shields the parts of a clinical sentence that a model
// must never rewrite: dose quantities, numbers and control tokens. Each span
// is replaced by a numbered marker ([PH0], [PH1], ...) before inference and
// substituted back afterwards.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// control tokens such as <src:eng_Latn> or <audience:patient>
	reControlToken = regexp.MustCompile(`<[a-z]+:[A-Za-z_]+>`)

	// a number followed by a dose, volume or time unit: "500 mg", "2 tablèt",
	// "8 èdtan", "5ml"
	reQuantity = regexp.MustCompile(`(?i)\d+(?:[.,]\d+)?\s*` +
		`(?:mcg|mg|µg|ml|cc|g|units?|inite|tablets?|tablèt|pills?|grenn|capsules?|kapsil|` +
		`drops?|gout|teaspoons?|tablespoons?|kiyè|puffs?|hours?|hrs?|èdtan|edtan|days?|jou|` +
		`times?|fwa)(?:[^\p{L}]|$)`)

	// any other bare number, including ranges written 1-2
	reNumber = regexp.MustCompile(`\d+(?:[.,]\d+)?(?:\s*-\s*\d+(?:[.,]\d+)?)?`)

	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces control tokens, dose quantities and remaining numbers with
// placeholders, in that order. It returns the rewritten text and the captured
// originals indexed by marker number.
func Protect(text string) (string, []string) {
	var markers []string

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(markers))
		markers = append(markers, match)
		return id
	}

	text = reControlToken.ReplaceAllStringFunc(text, replace)
	text = reQuantity.ReplaceAllStringFunc(text, func(match string) string {
		// keep the trailing boundary character out of the marker
		body, tail := splitTail(match)
		return replace(body) + tail
	})
	text = replaceOutsideMarkers(text, reNumber, replace)

	return text, markers
}

// splitTail separates the trailing boundary rune, if any, from a quantity
// match.
func splitTail(match string) (string, string) {
	last, size := utf8.DecodeLastRuneInString(match)
	if unicode.IsLetter(last) {
		return match, ""
	}
	return match[:len(match)-size], match[len(match)-size:]
}

// replaceOutsideMarkers applies re to the text between existing [PHn]
// markers so their indices are not themselves captured.
func replaceOutsideMarkers(text string, re *regexp.Regexp, replace func(string) string) string {
	var b strings.Builder
	last := 0
	for _, loc := range rePlaceholder.FindAllStringIndex(text, -1) {
		b.WriteString(re.ReplaceAllStringFunc(text[last:loc[0]], replace))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(re.ReplaceAllStringFunc(text[last:], replace))
	return b.String()
}

// Restore substitutes [PHn] markers in text back with the originals captured
// by Protect. Unknown indices are left as they are.
func Restore(text string, markers []string) string {
	return rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// InstructionHint returns a sentence to append to a model prompt so the
// markers survive.
func InstructionHint() string {
	return "Copy every [PHn] marker exactly as it appears. Do not translate, move or drop them."
}

// Validate returns the indices of markers missing from text.
func Validate(text string, markers []string) []int {
	var missing []int
	for i := range markers {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}
