package pdf

import (
	"strconv"
	"strings"
)

// kerningSpace is the TJ adjustment (thousandths of text space) beyond which
// a gap between two strings is treated as a word space
const kerningSpace = -200

// DecodeContentStream returns the text shown by the Tj, TJ, ' and " operators
// of a decoded page content stream. Line-moving operators start a new line.
// Only simple byte encodings are decoded; CID fonts yield raw bytes.
func DecodeContentStream(content []byte) string {
	d := &contentDecoder{data: content}
	d.run()
	return strings.TrimSpace(d.out.String())
}

type contentDecoder struct {
	data     []byte
	pos      int
	out      strings.Builder
	line     strings.Builder
	operands []string
	inArray  bool
}

func (d *contentDecoder) run() {
	for d.pos < len(d.data) {
		c := d.data[d.pos]
		switch {
		case isWhite(c):
			d.pos++
		case c == '%':
			d.skipComment()
		case c == '(':
			d.operands = append(d.operands, d.readLiteral())
		case c == '<' && d.peek(1) == '<':
			d.pos += 2
		case c == '>' && d.peek(1) == '>':
			d.pos += 2
		case c == '<':
			d.operands = append(d.operands, d.readHex())
		case c == '[':
			d.inArray = true
			d.pos++
		case c == ']':
			d.inArray = false
			d.pos++
		case c == '/':
			d.readWord() // name operand
		case isNumberStart(c):
			d.readNumber()
		default:
			d.operator(d.readWord())
		}
	}
	d.newline()
}

func (d *contentDecoder) operator(op string) {
	switch op {
	case "Tj", "TJ":
		d.show()
	case "'", "\"":
		d.newline()
		d.show()
	case "T*", "Td", "TD", "ET":
		d.newline()
	case "BI":
		d.skipInlineImage()
	}
	d.operands = d.operands[:0]
}

func (d *contentDecoder) show() {
	for _, s := range d.operands {
		d.line.WriteString(s)
	}
}

func (d *contentDecoder) newline() {
	text := strings.TrimRight(d.line.String(), " ")
	d.line.Reset()
	if text == "" {
		return
	}
	if d.out.Len() > 0 {
		d.out.WriteByte('\n')
	}
	d.out.WriteString(text)
}

func (d *contentDecoder) peek(offset int) byte {
	if d.pos+offset < len(d.data) {
		return d.data[d.pos+offset]
	}
	return 0
}

func (d *contentDecoder) skipComment() {
	for d.pos < len(d.data) && d.data[d.pos] != '\n' && d.data[d.pos] != '\r' {
		d.pos++
	}
}

// readLiteral decodes a (...) string including nested parentheses and escapes
func (d *contentDecoder) readLiteral() string {
	var b strings.Builder
	depth := 0
	d.pos++ // opening paren

	for d.pos < len(d.data) {
		c := d.data[d.pos]
		d.pos++

		switch c {
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			if depth == 0 {
				return b.String()
			}
			depth--
			b.WriteByte(c)
		case '\\':
			d.readEscape(&b)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (d *contentDecoder) readEscape(b *strings.Builder) {
	if d.pos >= len(d.data) {
		return
	}
	c := d.data[d.pos]
	d.pos++

	switch c {
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case '\r':
		// line continuation
		if d.pos < len(d.data) && d.data[d.pos] == '\n' {
			d.pos++
		}
	case '\n':
	default:
		if c >= '0' && c <= '7' {
			value := int(c - '0')
			for i := 0; i < 2 && d.pos < len(d.data) && d.data[d.pos] >= '0' && d.data[d.pos] <= '7'; i++ {
				value = value*8 + int(d.data[d.pos]-'0')
				d.pos++
			}
			b.WriteByte(byte(value))
			return
		}
		b.WriteByte(c)
	}
}

// readHex decodes a <...> string. An odd final digit is padded with 0.
func (d *contentDecoder) readHex() string {
	d.pos++ // opening angle
	var digits []byte
	for d.pos < len(d.data) && d.data[d.pos] != '>' {
		if c := d.data[d.pos]; isHexDigit(c) {
			digits = append(digits, c)
		}
		d.pos++
	}
	d.pos++ // closing angle

	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		v, _ := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		out = append(out, byte(v))
	}
	return string(out)
}

func (d *contentDecoder) readNumber() {
	start := d.pos
	for d.pos < len(d.data) && isNumberStart(d.data[d.pos]) {
		d.pos++
	}
	if !d.inArray {
		return
	}
	// Large negative adjustments inside TJ arrays separate words
	if v, err := strconv.ParseFloat(string(d.data[start:d.pos]), 64); err == nil && v < kerningSpace {
		d.operands = append(d.operands, " ")
	}
}

func (d *contentDecoder) readWord() string {
	start := d.pos
	d.pos++
	for d.pos < len(d.data) && !isWhite(d.data[d.pos]) && !isDelimiter(d.data[d.pos]) {
		d.pos++
	}
	return string(d.data[start:d.pos])
}

// skipInlineImage skips binary image data up to and including EI
func (d *contentDecoder) skipInlineImage() {
	for d.pos+1 < len(d.data) {
		if d.data[d.pos] == 'E' && d.data[d.pos+1] == 'I' &&
			(d.pos == 0 || isWhite(d.data[d.pos-1])) &&
			(d.pos+2 >= len(d.data) || isWhite(d.data[d.pos+2])) {
			d.pos += 2
			return
		}
		d.pos++
	}
	d.pos = len(d.data)
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
