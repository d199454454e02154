package normalizer

import (
	"iter"
	"unicode/utf8"
)

// Variants yields the lookup forms of text, de-duplicated, in this order: the
// original, the surface form (steps 1-3), the expanded form (steps 1-4), the
// fully normalized form and its contracted spelling. Each iteration recomputes
// the sequence, so it may be ranged over more than once.
func (n *Normalizer) Variants(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if text == "" || !utf8.ValidString(text) {
			return
		}
		seen := make(map[string]bool, 5)
		emit := func(v string) bool {
			if v == "" || seen[v] {
				return true
			}
			seen[v] = true
			return yield(v)
		}

		if !emit(text) {
			return
		}
		surface := n.surface(text)
		if !emit(surface) {
			return
		}
		expanded := n.expandContractions(surface)
		if !emit(expanded) {
			return
		}
		full := n.applyRules(expanded, n.newFolder())
		if !emit(full) {
			return
		}
		emit(n.contract(full))
	}
}
