package chunker

import (
	"regexp"
	"strings"
)

// tokenPattern approximates the cl100k_base pre-tokenizer: contractions,
// words with one leading non-letter, numbers in runs of up to three digits,
// punctuation runs and whitespace runs.
var tokenPattern = regexp.MustCompile(`(?i:'s|'t|'re|'ve|'m|'ll|'d)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+`)

// Tokenizer splits text into tokens whose concatenation is the original text.
type Tokenizer struct{}

// Tokenize returns the tokens of text. Any byte range the pattern does not
// match becomes its own token, so strings.Join(tokens, "") == text always holds.
func (Tokenizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	matches := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]string, 0, len(matches))

	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			tokens = append(tokens, text[pos:m[0]])
		}
		tokens = append(tokens, text[m[0]:m[1]])
		pos = m[1]
	}
	if pos < len(text) {
		tokens = append(tokens, text[pos:])
	}

	return tokens
}

// Count returns the number of tokens in text
func (t Tokenizer) Count(text string) int {
	return len(t.Tokenize(text))
}

// join concatenates a token window
func join(tokens []string) string {
	return strings.Join(tokens, "")
}
