// Package detector tells English apart from Haitian Creole.
//
// lingua has no Haitian Creole model, so the detector compares English
// against the Romance languages Creole is most often confused with and
// treats any confident non-English result as Creole.
package detector

import (
	lingua "github.com/pemistahl/lingua-go"

	"github.com/kalimax/kalimax/internal/corpus"
)

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds the detector. Loading language models is expensive; reuse the
// instance.
func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.French, lingua.Spanish, lingua.Portuguese).
		WithPreloadedLanguageModels().
		Build()

	return &Detector{detector: detector}
}

// EnglishConfidence returns the probability in [0,1] that text is English.
func (d *Detector) EnglishConfidence(text string) float64 {
	if text == "" {
		return 0
	}
	return d.detector.ComputeLanguageConfidence(text, lingua.English)
}

// Detect guesses the corpus language of text.
func (d *Detector) Detect(text string) (corpus.Language, bool) {
	if text == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	if lang == lingua.English {
		return corpus.LangEnglish, true
	}
	return corpus.LangCreole, true
}
