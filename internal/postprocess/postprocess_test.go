package postprocess

import "testing"

func TestStripReasoning(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain answer", input: "Bwè anpil dlo.", expected: "Bwè anpil dlo."},
		{name: "closed block", input: "<think>patient audience</think>Bwè dlo", expected: "Bwè dlo"},
		{name: "upper case tag", input: "<THINKING>x</THINKING> Bwè dlo", expected: "Bwè dlo"},
		{name: "multiline block", input: "<reasoning>line one\nline two</reasoning>\nRepoze w", expected: "Repoze w"},
		{name: "two blocks", input: "<think>a</think>Pran<reflection>b</reflection> grenn", expected: "Pran grenn"},
		{name: "cut off", input: "Bwè dlo<thinking>the model stopped here", expected: "Bwè dlo"},
		{name: "cut off only", input: "<reasoning>nothing else", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripReasoning(tt.input); got != tt.expected {
				t.Errorf("stripReasoning(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStripControlTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "none", input: "Pran 2 grenn", expected: "Pran 2 grenn"},
		{name: "full prefix", input: "<src:eng_Latn> <tgt:hat_Latn> <domain:medical> <audience:patient> Pran 2 grenn", expected: "Pran 2 grenn"},
		{name: "mode token", input: "<mode:localized> Bwè dlo", expected: "Bwè dlo"},
		{name: "other brackets kept", input: "Pran <b>2</b> grenn", expected: "Pran <b>2</b> grenn"},
		{name: "own line", input: "<src:eng_Latn> <tgt:hat_Latn>\nBwè dlo", expected: "Bwè dlo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripControlTokens(tt.input); got != tt.expected {
				t.Errorf("stripControlTokens(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDropPromptLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "instructions copied",
			input:    "You are a professional medical interpreter. Translate the user's text from English to Haitian Creole.\nOnly respond with the translation, nothing else.\nPran 2 grenn",
			expected: "Pran 2 grenn",
		},
		{
			name:     "marker hint copied",
			input:    "Pran [PH0]\nCopy every [PHn] marker exactly as it appears.",
			expected: "Pran [PH0]",
		},
		{
			name:     "glossary block copied",
			input:    "TERMINOLOGY (use these exact translations):\n  fever -> lafyèv\n  seizure -> kriz\nMwen gen lafyèv",
			expected: "Mwen gen lafyèv",
		},
		{
			name:     "arrow outside glossary kept",
			input:    "Etap 1 -> etap 2",
			expected: "Etap 1 -> etap 2",
		},
		{
			name:     "echoed line dropped, answer kept",
			input:    "Mande yon pwofesyonèl.\nYou are a professional, ask anyone",
			expected: "Mande yon pwofesyonèl.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dropPromptLines(tt.input); got != tt.expected {
				t.Errorf("dropPromptLines(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStripLeadIn(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "here is", input: "Here is the translation: Bwè dlo", expected: "Bwè dlo"},
		{name: "sure with language", input: "Sure, here's the Haitian Creole translation:\nBwè dlo", expected: "Bwè dlo"},
		{name: "translation into", input: "Translation into English: Drink water", expected: "Drink water"},
		{name: "creole lead-in", input: "Men tradiksyon an: Bwè dlo", expected: "Bwè dlo"},
		{name: "language label", input: "Kreyòl ayisyen: Bwè dlo", expected: "Bwè dlo"},
		{name: "english label", input: "English: Drink water", expected: "Drink water"},
		{name: "colon inside answer kept", input: "Dòz: 2 grenn", expected: "Dòz: 2 grenn"},
		{name: "no colon kept", input: "Here is the pharmacy", expected: "Here is the pharmacy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripLeadIn(tt.input); got != tt.expected {
				t.Errorf("stripLeadIn(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDropTrailingNote(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "english note", input: "Bwè dlo\n\nNote: \"dlo\" means water.", expected: "Bwè dlo"},
		{name: "parenthesized", input: "Bwè dlo\n(Note: informal register)", expected: "Bwè dlo"},
		{name: "creole note", input: "Drink water\nNòt: mo a fòmèl", expected: "Drink water"},
		{name: "note is the answer", input: "Note: take with food", expected: "Note: take with food"},
		{name: "no note", input: "Bwè dlo\nRepoze w", expected: "Bwè dlo\nRepoze w"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dropTrailingNote(tt.input); got != tt.expected {
				t.Errorf("dropTrailingNote(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"Bwè dlo"`, "Bwè dlo"},
		{"'Bwè dlo'", "Bwè dlo"},
		{"«Bwè dlo»", "Bwè dlo"},
		{"“Bwè dlo”", "Bwè dlo"},
		{"‘Bwè dlo’", "Bwè dlo"},
		{`"Bwè dlo'`, `"Bwè dlo'`},
		{`Li di "bwè dlo"`, `Li di "bwè dlo"`},
		{`"`, `"`},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := unquote(tt.input); got != tt.expected {
				t.Errorf("unquote(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "clean input", input: "Pran [PH0] chak [PH1]", expected: "Pran [PH0] chak [PH1]"},
		{
			name:     "everything at once",
			input:    "<think>plain words</think>\n<src:eng_Latn> <tgt:hat_Latn>\nHere is the translation:\n\"Pran [PH0] chak [PH1]\"\n\nNote: kept the markers.",
			expected: "Pran [PH0] chak [PH1]",
		},
		{
			name:     "echoed control tokens and quotes",
			input:    "<src:eng_Latn> <tgt:hat_Latn> <domain:medical> <audience:patient> «Bwè dlo»",
			expected: "Bwè dlo",
		},
		{name: "only reasoning", input: "<thinking>hmm", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
