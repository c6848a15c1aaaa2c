package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeContentStream(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "single Tj",
			content: "BT /F1 12 Tf 72 712 Td (Hello World) Tj ET",
			want:    "Hello World",
		},
		{
			name:    "lines from Td",
			content: "BT /F1 12 Tf 72 712 Td (First line) Tj 0 -14 Td (Second line) Tj ET",
			want:    "First line\nSecond line",
		},
		{
			name:    "separate text objects",
			content: "BT 10 10 Td (One) Tj ET\nBT 10 30 Td (Two) Tj ET",
			want:    "One\nTwo",
		},
		{
			name:    "TJ array with kerning and word gap",
			content: "BT [(Hel) -20 (lo) -300 (World)] TJ ET",
			want:    "Hello World",
		},
		{
			name:    "escapes",
			content: `BT (Paren \(inside\) and back\\slash) Tj T* (Octal \101\102C) Tj ET`,
			want:    "Paren (inside) and back\\slash\nOctal ABC",
		},
		{
			name:    "nested parentheses",
			content: "BT (a (nested) string) Tj ET",
			want:    "a (nested) string",
		},
		{
			name:    "hex string",
			content: "BT <48656C6C6F> Tj ET",
			want:    "Hello",
		},
		{
			name:    "quote operator moves to next line",
			content: "BT (Line one) Tj (Line two) ' ET",
			want:    "Line one\nLine two",
		},
		{
			name:    "graphics only",
			content: "q 1 0 0 1 0 0 cm 0 0 100 100 re f Q",
			want:    "",
		},
		{
			name:    "dictionary operands and comments",
			content: "% comment (not text) Tj\n/P <</MCID 0>> BDC BT (Tagged) Tj ET EMC",
			want:    "Tagged",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeContentStream([]byte(tt.content)))
		})
	}
}
