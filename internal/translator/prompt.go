package translator

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/placeholder"
	"github.com/kalimax/kalimax/internal/policy"
)

func languageName(l corpus.Language) string {
	switch l {
	case corpus.LangEnglish:
		return "English"
	case corpus.LangCreole:
		return "Haitian Creole"
	}
	return string(l)
}

var audienceHints = map[corpus.Audience]string{
	corpus.AudiencePatient:   "Write for a patient: plain everyday words, no jargon, short sentences.",
	corpus.AudienceClinician: "Write for a clinician: keep precise medical terminology.",
	corpus.AudienceCaregiver: "Write for a family caregiver: plain words, keep every instruction explicit.",
	corpus.AudienceGeneral:   "Write for a general audience.",
}

// buildSystemPrompt opens with the same control-token prefix the training
// records carry, then the plain-language instructions.
func buildSystemPrompt(req TranslateRequest) (string, error) {
	tokens, err := policy.ControlTokens(policy.Attributes{
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Domain:     req.Domain,
		Audience:   req.Audience,
	}, false)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(tokens)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "You are a professional %s interpreter. Translate the user's text from %s to %s.\n",
		strings.ReplaceAll(string(req.Domain), "_", " "), languageName(req.SourceLang), languageName(req.TargetLang))
	sb.WriteString("Only respond with the translation, nothing else. No explanations, no quotes, no control tokens.")
	if hint, ok := audienceHints[req.Audience]; ok {
		sb.WriteString(" ")
		sb.WriteString(hint)
	}
	sb.WriteString(" ")
	sb.WriteString(placeholder.InstructionHint())

	if len(req.Glossary) > 0 {
		sb.WriteString("\n\nTERMINOLOGY (use these exact translations):\n")
		for _, src := range slices.Sorted(maps.Keys(req.Glossary)) {
			fmt.Fprintf(&sb, "  %s -> %s\n", src, req.Glossary[src])
		}
	}
	return sb.String(), nil
}
