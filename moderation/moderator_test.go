package moderation

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions
// (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar, slog.Default())
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
			words:    []string{"badger"},
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
			words:    []string{"badger", "badger", "badger"},
		},
		{
			name:     "Leet speak evasion",
			input:    "a sneaky b4dg3r appears",
			expected: "a sneaky ****** appears",
			words:    []string{"badger"},
		},
		{
			name:     "Mixed case",
			input:    "BADGER and SnAkE",
			expected: "****** and *****",
			words:    []string{"badger", "snake"},
		},
		{
			name:     "Clean content untouched",
			input:    "a perfectly polite sentence",
			expected: "a perfectly polite sentence",
			words:    nil,
		},
		{
			name:     "Empty content untouched",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			censored, found := mod.Censor(tt.input)
			req.Equal(tt.expected, censored)
			req.Equal(tt.words, found)
		})
	}
}

func TestLoadCensoredWords_Embedded_Dictionaries(t *testing.T) {
	req := require.New(t)

	data, err := LoadCensoredWords()
	req.NoError(err)
	req.NotEmpty(data.Words)
	req.Contains(data.Languages, "en")
	req.Contains(data.Languages, "fr")

	// Comment lines never end up in the dictionary
	for _, w := range data.Words {
		req.NotContains(w, "#")
	}
}

func TestNewDefaultModerator_Censors_Embedded_Words(t *testing.T) {
	req := require.New(t)

	mod, err := NewDefaultModerator(replacementChar, slog.Default())
	req.NoError(err)

	censored, found := mod.Censor("what an idiot")
	req.Equal("what an *****", censored)
	req.Equal([]string{"idiot"}, found)
}
