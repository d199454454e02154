// Package validator checks that a text is written in the language its record
// claims.
package validator

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// mismatchConfidence is how sure the detector must be before a text is
// reported as the wrong language.
const mismatchConfidence = 0.8

// ErrLanguageMismatch is returned when a text confidently reads as the other
// corpus language.
var ErrLanguageMismatch = errors.New("language mismatch")

// Validator checks that a text is written in its tagged language.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator. Pass nil to build a fresh detector; the detector is
// expensive to build, so share it when one exists.
func New(det *detector.Detector) *Validator {
	if det == nil {
		det = detector.New()
	}
	return &Validator{det: det}
}

// IsValid returns true when text appears to be written in lang.
//
// Short texts and ambiguous detections pass. An empty lang disables the check.
func (v *Validator) IsValid(text string, lang corpus.Language) (bool, error) {
	if lang == "" {
		return true, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("text is empty")
	}

	if utf8.RuneCountInString(text) < minValidationLength {
		return true, nil
	}

	english := v.det.EnglishConfidence(text)
	switch lang {
	case corpus.LangEnglish:
		if english < 1-mismatchConfidence {
			return false, fmt.Errorf("%w: expected %s but text does not read as English (confidence %.2f)", ErrLanguageMismatch, lang, english)
		}
	case corpus.LangCreole:
		if english > mismatchConfidence {
			return false, fmt.Errorf("%w: expected %s but text reads as English (confidence %.2f)", ErrLanguageMismatch, lang, english)
		}
	default:
		return false, &corpus.EnumError{Field: "language", Value: string(lang)}
	}
	return true, nil
}
