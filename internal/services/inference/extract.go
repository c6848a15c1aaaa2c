package inference

import (
	"regexp"
	"strings"
)

var (
	reasoningPreamble = regexp.MustCompile(`(?i)^\s*(?:Reasoning Process:|Reasoning:)\s*`)
	answerMarker      = regexp.MustCompile(`(?i)\n\s*(?:Final Answer:|Answer:|Response:)`)
	thinkOpen         = regexp.MustCompile(`(?i)<think>`)
	thinkClose        = regexp.MustCompile(`(?i)</think>`)
)

// ExtractReasoning keeps only the reasoning trace of a model output. When the
// output has a think block, only its content is kept and the answer after
// </think> is discarded. A leading "Reasoning:" style preamble is stripped and
// everything from the first Answer/Response/Final Answer line onward is dropped.
func ExtractReasoning(output string) string {
	text := output
	if loc := thinkClose.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	text = thinkOpen.ReplaceAllString(text, "")
	text = reasoningPreamble.ReplaceAllString(strings.TrimSpace(text), "")
	if loc := answerMarker.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return strings.TrimSpace(text)
}
