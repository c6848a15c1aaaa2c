package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractReasoning(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"plain", "  Step one.\nStep two.  ", "Step one.\nStep two."},
		{"reasoning preamble", "Reasoning: Look at Q1.", "Look at Q1."},
		{"process preamble", "reasoning process:\n\nLook at Q1.", "Look at Q1."},
		{"answer cut", "Look at Q1.\nAnswer: 10%", "Look at Q1."},
		{"response cut", "Look at Q1.\nresponse: 10%\nmore", "Look at Q1."},
		{"final answer cut", "Look at Q1.\nFinal Answer: 10%", "Look at Q1."},
		{"inline marker kept", "The Answer: field is inline", "The Answer: field is inline"},
		{"think tags", "<think>\nLook at Q1.\n</think>\nAnswer: 10%", "Look at Q1."},
		{"answer after think block dropped", "<think>\nSales rose 10 percent per the context.\n</think>\n\nSales rose by 10% in Q1.", "Sales rose 10 percent per the context."},
		{"unclosed think", "<think>\nStill thinking about Q1.", "Still thinking about Q1."},
		{"uppercase think tags", "<THINK>Look at Q1.</THINK>Final: 10%", "Look at Q1."},
		{"empty think block", "<think>\n</think>\nSales rose 10%.", ""},
		{"only answer", "Answer: 10%", "Answer: 10%"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, ExtractReasoning(tt.input))
		})
	}
}

func TestPrompts(t *testing.T) {
	reasoning := BuildReasoningPrompt("What changed?", "ctx one\n\nctx two")
	assert.Contains(t, reasoning, "Context information:\nctx one\n\nctx two\n\n")
	assert.Contains(t, reasoning, "DO NOT provide any final answer or conclusion.")
	assert.Contains(t, reasoning, "\n\nTask: What changed?")

	response := BuildResponsePrompt("What changed?", "step 1")
	assert.Contains(t, response, "Original task: What changed?\n\n")
	assert.Contains(t, response, "Reasoning steps:\nstep 1\n\nProvide your direct answer to given task:")
}
