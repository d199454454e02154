package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Boundary says where a contraction form may match inside a token.
type Boundary int

const (
	// BoundaryPrefix matches the form at the start of a token when a letter
	// follows it ("m'ap"), or as a whole token when another token follows
	// ("m' ap").
	BoundaryPrefix Boundary = iota
	// BoundaryWholeToken matches only a complete token.
	BoundaryWholeToken
)

// Contraction is one entry of the expansion table.
type Contraction struct {
	Form      string
	Expansion string
	Boundary  Boundary
}

// DefaultContractions returns the Creole pronoun and particle contractions
// expanded by step 4. Forms that collide with English ("y'all", "n'") are left
// out, as is "pa": it is a complete word, not a contraction.
func DefaultContractions() []Contraction {
	return []Contraction{
		{Form: "m'", Expansion: "mwen", Boundary: BoundaryPrefix},
		{Form: "w'", Expansion: "ou", Boundary: BoundaryPrefix},
		{Form: "l'", Expansion: "li", Boundary: BoundaryPrefix},
		{Form: "k'", Expansion: "ki", Boundary: BoundaryPrefix},
		{Form: "mgen", Expansion: "mwen gen", Boundary: BoundaryWholeToken},
		{Form: "femal", Expansion: "fè mal", Boundary: BoundaryWholeToken},
	}
}

// expandContractions runs step 4 on whitespace-collapsed text.
func (n *Normalizer) expandContractions(text string) string {
	tokens := strings.Split(text, " ")
	out := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		hasNext := i+1 < len(tokens)
		out = append(out, n.expandToken(tok, hasNext))
	}
	return strings.Join(out, " ")
}

func (n *Normalizer) expandToken(tok string, hasNext bool) string {
	prefix, core, suffix := splitToken(tok)
	if core == "" {
		return tok
	}
	if exp, ok := n.wholeToken(core); ok {
		return prefix + matchCase(core, exp) + suffix
	}

	// A prefix match may leave another contraction in the rest, either at its
	// head or as the whole of it, so keep expanding until nothing matches.
	var expanded []string
	rest := core
	for {
		c, ok := n.prefixContraction(rest, hasNext)
		if !ok {
			break
		}
		expanded = append(expanded, matchCase(rest, c.Expansion))
		rest = rest[len(c.Form):]
		if exp, ok := n.wholeToken(rest); ok {
			expanded = append(expanded, matchCase(rest, exp))
			rest = ""
		}
		if rest == "" {
			break
		}
	}
	if len(expanded) == 0 {
		return tok
	}
	if rest != "" {
		expanded = append(expanded, rest)
	}
	return prefix + strings.Join(expanded, " ") + suffix
}

// wholeToken returns the expansion of a whole-token entry equal to s.
func (n *Normalizer) wholeToken(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, c := range n.contractions {
		if c.Boundary == BoundaryWholeToken && lower == c.Form {
			return c.Expansion, true
		}
	}
	return "", false
}

// prefixContraction finds the prefix entry matching the head of s. A bare
// form ("m'") only matches when something follows it.
func (n *Normalizer) prefixContraction(s string, followed bool) (Contraction, bool) {
	for _, c := range n.contractions {
		if c.Boundary != BoundaryPrefix || len(s) < len(c.Form) || !strings.EqualFold(s[:len(c.Form)], c.Form) {
			continue
		}
		after := s[len(c.Form):]
		if after == "" {
			if followed {
				return c, true
			}
			continue
		}
		r, _ := utf8.DecodeRuneInString(after)
		if unicode.IsLetter(r) {
			return c, true
		}
	}
	return Contraction{}, false
}

// matchCase capitalizes repl when the original starts with an upper-case letter.
func matchCase(original, repl string) string {
	r, _ := utf8.DecodeRuneInString(original)
	if !unicode.IsUpper(r) {
		return repl
	}
	first, size := utf8.DecodeRuneInString(repl)
	return string(unicode.ToUpper(first)) + repl[size:]
}

// contract reverses prefix expansions ("mwen gen" -> "m'gen"). It is used to
// produce the short lookup variant, never by Normalize.
func (n *Normalizer) contract(text string) string {
	tokens := strings.Split(text, " ")
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if i+1 < len(tokens) {
			if form, ok := n.shortForm(tok); ok {
				next := tokens[i+1]
				if r, _ := utf8.DecodeRuneInString(next); unicode.IsLetter(r) {
					out = append(out, matchCase(tok, form)+next)
					i++
					continue
				}
			}
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

func (n *Normalizer) shortForm(word string) (string, bool) {
	lower := strings.ToLower(word)
	for _, c := range n.contractions {
		if c.Boundary == BoundaryPrefix && c.Expansion == lower {
			return c.Form, true
		}
	}
	return "", false
}
