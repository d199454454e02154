// Package normalizer canonicalizes Haitian Creole and English text before it is
// stored, matched against normalization rules, exported for training, or sent
// to a translation model.
//
// Normalize applies five steps in a fixed order. Each step assumes the earlier
// ones already ran:
//  1. Unicode NFC composition
//  2. Quote, dash and invisible-character canonicalization
//  3. Whitespace collapse and trim
//  4. Apostrophe-contraction expansion at token boundaries
//  5. Normalization-rule substitution per token
//
// Normalize is idempotent and safe for concurrent use.
package normalizer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/kalimax/kalimax/internal/corpus"
)

// Config controls rule matching.
type Config struct {
	// CaseInsensitive matches rule variants after Unicode case folding.
	CaseInsensitive bool `mapstructure:"case_insensitive"`
}

// DefaultConfig matches rules case-insensitively.
func DefaultConfig() Config {
	return Config{CaseInsensitive: true}
}

// Normalizer holds an immutable contraction table and compiled rule set.
type Normalizer struct {
	cfg          Config
	contractions []Contraction
	rules        map[string]string
	dropped      []string
}

// New compiles rules into a Normalizer using DefaultContractions. Rules are
// validated, their canonical forms normalized, and chains resolved so that
// applying the rule step twice never changes the result.
func New(cfg Config, rules []corpus.NormalizationRule) (*Normalizer, error) {
	n := &Normalizer{
		cfg:          cfg,
		contractions: DefaultContractions(),
	}
	compiled, err := n.compileRules(rules)
	if err != nil {
		return nil, err
	}
	n.rules = compiled
	return n, nil
}

// RuleCount returns the number of compiled rules.
func (n *Normalizer) RuleCount() int {
	return len(n.rules)
}

// Normalize returns the canonical form of text. Empty or invalid UTF-8 input
// yields "". Unknown tokens pass through unchanged.
func (n *Normalizer) Normalize(text string) string {
	if !utf8.ValidString(text) {
		return ""
	}
	text = n.surface(text)
	if text == "" {
		return ""
	}
	text = n.expandContractions(text)
	return n.applyRules(text, n.newFolder())
}

// surface runs steps 1-3.
func (n *Normalizer) surface(text string) string {
	text = composeUnicode(text)
	text = canonicalizePunctuation(text)
	return collapseWhitespace(text)
}

// --- Step 1: Unicode composition ---

func composeUnicode(text string) string {
	return norm.NFC.String(text)
}

// --- Step 2: punctuation ---

var punctuationReplacer = strings.NewReplacer(
	// double quotes
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"«", `"`, "»", `"`, "″", `"`, "＂", `"`,
	// single quotes and apostrophes
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"‹", "'", "›", "'", "ʼ", "'", "′", "'", "＇", "'",
	// dashes and minus
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-",
	"―", "-", "−", "-",
	// ellipsis
	"…", "...",
	// invisible characters
	"\u200b", "", "\u200c", "", "\u200d", "", "\u2060", "", "\ufeff", "",
	// non-breaking spaces become ordinary spaces for step 3
	"\u00a0", " ", "\u202f", " ", "\u2007", " ",
)

var ellipsisRe = regexp.MustCompile(`\.{4,}`)

// canonicalizePunctuation maps typographic quotes, dashes and ellipses to
// ASCII and strips zero-width characters. Removing a joiner can expose a
// composable sequence, so the result is re-composed.
func canonicalizePunctuation(text string) string {
	out := punctuationReplacer.Replace(text)
	out = ellipsisRe.ReplaceAllString(out, "...")
	if out != text {
		out = norm.NFC.String(out)
	}
	return out
}

// --- Step 3: whitespace ---

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// --- token helpers shared by steps 4 and 5 ---

// An apostrophe ends a contraction form ("m'"), so it is only stripped from
// the front of a token.
const (
	leadingPunct  = `"'([{¿¡`
	trailingPunct = `.,!?;:")]}`
)

// splitToken separates attached punctuation from the token core.
func splitToken(tok string) (prefix, core, suffix string) {
	core = strings.TrimLeft(tok, leadingPunct)
	prefix = tok[:len(tok)-len(core)]
	trimmed := strings.TrimRight(core, trailingPunct)
	suffix = core[len(trimmed):]
	return prefix, trimmed, suffix
}

// folder produces rule lookup keys. cases.Caser is stateful, so each
// Normalize call gets its own.
type folder func(string) string

func (n *Normalizer) newFolder() folder {
	if !n.cfg.CaseInsensitive {
		return func(s string) string { return s }
	}
	c := cases.Fold()
	return func(s string) string { return c.String(s) }
}
