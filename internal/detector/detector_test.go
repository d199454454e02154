package detector

import (
	"testing"

	"github.com/kalimax/kalimax/internal/corpus"
)

func TestDetector_Detect(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		text     string
		wantLang corpus.Language
		wantOK   bool
	}{
		{
			name:     "empty text",
			text:     "",
			wantLang: "",
			wantOK:   false,
		},
		{
			name:     "english text",
			text:     "Take two tablets every six hours with food.",
			wantLang: corpus.LangEnglish,
			wantOK:   true,
		},
		{
			name:     "creole text",
			text:     "Mwen gen lafyèv depi twa jou, tèt mwen ap fè mwen mal anpil.",
			wantLang: corpus.LangCreole,
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, ok := d.Detect(tt.text)
			if ok != tt.wantOK {
				t.Errorf("Detect(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if lang != tt.wantLang {
				t.Errorf("Detect(%q) = %q, want %q", tt.text, lang, tt.wantLang)
			}
		})
	}
}

func TestDetector_EnglishConfidence(t *testing.T) {
	d := New()

	if c := d.EnglishConfidence(""); c != 0 {
		t.Errorf("empty text confidence = %v, want 0", c)
	}
	en := d.EnglishConfidence("The patient should drink plenty of water and rest.")
	ht := d.EnglishConfidence("Pasyan an dwe bwè anpil dlo epi repoze li.")
	if en <= ht {
		t.Errorf("expected English confidence %v to exceed Creole %v", en, ht)
	}
}
