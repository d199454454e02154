// Package postprocess extracts the translation from raw chat-model output.
//
// Models wrap their answer in reasoning blocks, repeat the conditioning
// tokens and instructions of the prompt, announce the answer ("Here is the
// translation:") or append a note after it. Clean removes all of that before
// placeholders are checked and the result is cached.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean returns the translation found in text, trimmed.
func Clean(text string) string {
	text = stripReasoning(text)
	text = stripControlTokens(text)
	text = dropPromptLines(text)
	text = stripLeadIn(text)
	text = dropTrailingNote(text)
	return unquote(text)
}

// reasoningRes match one reasoning block each. A block whose closing tag is
// missing runs to the end of the text.
var reasoningRes = func() []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, tag := range []string{"thinking", "think", "reasoning", "reflection"} {
		out = append(out, regexp.MustCompile(`(?is)<`+tag+`>.*?(?:</`+tag+`>|$)`))
	}
	return out
}()

func stripReasoning(text string) string {
	for _, re := range reasoningRes {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

var controlTokenRe = regexp.MustCompile(`<(?:src|tgt|domain|audience|mode):[A-Za-z_]*>[ \t]*`)

func stripControlTokens(text string) string {
	return strings.TrimSpace(controlTokenRe.ReplaceAllString(text, ""))
}

// promptLinePrefixes open the instruction lines the translator sends. They
// are compared lower-cased.
var promptLinePrefixes = []string{
	"you are a professional",
	"translate the user's text",
	"only respond with the translation",
	"copy every [phn] marker",
}

const glossaryHeader = "terminology (use these exact translations)"

// dropPromptLines removes copied instruction lines and a copied glossary
// block ("TERMINOLOGY ...:" followed by "src -> tgt" lines).
func dropPromptLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	inGlossary := false
	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if inGlossary {
			if strings.Contains(lower, " -> ") {
				continue
			}
			inGlossary = false
		}
		if strings.HasPrefix(lower, glossaryHeader) {
			inGlossary = true
			continue
		}
		if hasAnyPrefix(lower, promptLinePrefixes) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// leadInRes match announcements in front of the answer. Each one ends in a
// colon.
var leadInRes = []*regexp.Regexp{
	// "Sure, here is the Haitian Creole translation:", "Translation into English:"
	regexp.MustCompile(`(?i)^(?:(?:certainly|sure|of course|okay|ok)[,.!]?\s+)?(?:here(?:'s| is)\s+)?(?:the\s+)?` +
		`(?:(?:haitian\s+creole|creole|english)\s+)?(?:translation|translated text)` +
		`(?:\s+(?:in|into|to)\s+(?:haitian\s+creole|creole|english))?\s*:`),
	// "Men tradiksyon an:", "Tradiksyon an kreyòl:"
	regexp.MustCompile(`(?i)^(?:men\s+)?tradiksyon(?:\s+an)?(?:\s+an\s+(?:kreyòl|angle))?\s*:`),
	// a bare language label: "Haitian Creole:", "Kreyòl ayisyen:", "English:"
	regexp.MustCompile(`(?i)^(?:haitian\s+creole|kreyòl(?:\s+ayisyen)?|english|angle)\s*:`),
}

func stripLeadIn(text string) string {
	for _, re := range leadInRes {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

var noteRe = regexp.MustCompile(`(?i)^\(?(?:note|nòt|nb)\s*:`)

// dropTrailingNote cuts a note line and everything after it. A note on the
// first line is left alone; it is the whole answer.
func dropTrailingNote(text string) string {
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if noteRe.MatchString(strings.TrimSpace(lines[i])) {
			return strings.TrimSpace(strings.Join(lines[:i], "\n"))
		}
	}
	return text
}

// quotePairs maps an opening quote to the closing quote that ends a wrapped
// answer.
var quotePairs = map[rune]rune{
	'"':      '"',
	'\'':     '\'',
	'«':      '»',
	'\u201C': '\u201D',
	'\u2018': '\u2019',
}

// unquote removes one pair of quotes that wraps the whole text.
func unquote(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	if closing, ok := quotePairs[runes[0]]; ok && runes[len(runes)-1] == closing {
		return strings.TrimSpace(string(runes[1 : len(runes)-1]))
	}
	return text
}
