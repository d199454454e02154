package normalizer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kalimax/kalimax/internal/corpus"
)

// ErrDuplicateVariant is returned when two rules claim the same variant.
var ErrDuplicateVariant = errors.New("duplicate normalization variant")

// Dropped returns the IDs of rules discarded because their canonical forms
// never settle (a -> b -> a).
func (n *Normalizer) Dropped() []string {
	return append([]string(nil), n.dropped...)
}

// applyRules runs step 5.
func (n *Normalizer) applyRules(text string, fold folder) string {
	return substitute(n.rules, text, fold)
}

func substitute(rules map[string]string, text string, fold folder) string {
	if len(rules) == 0 || text == "" {
		return text
	}
	tokens := strings.Split(text, " ")
	for i, tok := range tokens {
		prefix, core, suffix := splitToken(tok)
		if core == "" {
			continue
		}
		if canon, ok := rules[fold(core)]; ok {
			tokens[i] = prefix + canon + suffix
		}
	}
	return strings.Join(tokens, " ")
}

// compileRules keys each rule by its folded variant and resolves canonical
// forms to a fixpoint, so that no resolved canonical contains a variant.
func (n *Normalizer) compileRules(rules []corpus.NormalizationRule) (map[string]string, error) {
	fold := n.newFolder()
	raw := make(map[string]string, len(rules))
	owner := make(map[string]string, len(rules))

	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		_, key, _ := splitToken(n.surface(r.Variant))
		if key == "" {
			return nil, fmt.Errorf("rule %q: variant %q has no word characters", r.ID, r.Variant)
		}
		key = fold(key)
		if prev, dup := owner[key]; dup {
			return nil, fmt.Errorf("%w: %q used by rules %q and %q", ErrDuplicateVariant, r.Variant, prev, r.ID)
		}

		canon := n.expandContractions(n.surface(r.Canonical))
		if canon == "" {
			return nil, fmt.Errorf("rule %q: canonical %q is empty after normalization", r.ID, r.Canonical)
		}
		if tok, ok := n.bareForm(canon); ok {
			return nil, fmt.Errorf("rule %q: canonical ends in bare contraction %q", r.ID, tok)
		}
		owner[key] = r.ID
		raw[key] = canon
	}

	resolved := make(map[string]string, len(raw))
	for key, canon := range raw {
		cur, stable := canon, false
		for range len(raw) + 1 {
			next := substitute(raw, cur, fold)
			if next == cur {
				stable = true
				break
			}
			cur = next
		}
		if !stable {
			n.dropped = append(n.dropped, owner[key])
			continue
		}
		resolved[key] = cur
	}
	sort.Strings(n.dropped)
	return resolved, nil
}

// bareForm reports a token that is exactly a prefix contraction form. Such a
// token would expand on a second pass once another token follows it.
func (n *Normalizer) bareForm(text string) (string, bool) {
	for _, tok := range strings.Split(text, " ") {
		_, core, _ := splitToken(tok)
		for _, c := range n.contractions {
			if c.Boundary == BoundaryPrefix && strings.EqualFold(core, c.Form) {
				return tok, true
			}
		}
	}
	return "", false
}

// ruleFile is the YAML layout of a rule seed file.
type ruleFile struct {
	Rules []corpus.NormalizationRule `yaml:"rules"`
}

// LoadRulesFile reads normalization rules from a YAML file.
func LoadRulesFile(path string) ([]corpus.NormalizationRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return DecodeRules(f)
}

// DecodeRules parses a YAML rule document. Unknown fields are rejected.
func DecodeRules(r io.Reader) ([]corpus.NormalizationRule, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc ruleFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	for i, rule := range doc.Rules {
		if rule.ID == "" {
			doc.Rules[i].ID = fmt.Sprintf("rule_%04d", i+1)
		}
		if err := doc.Rules[i].Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Rules, nil
}
