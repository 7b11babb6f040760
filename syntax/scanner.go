package syntax

import "strconv"

// isSpace matches the byte-class spec §4.2 skips: any byte <= 0x20.
func isSpace(c byte) bool {
	return c <= 0x20
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isAlnum(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

func isOperatorByte(c byte) bool {
	switch c {
	case '=', '+', '-', '*', '/', '%', '^':
		return true
	default:
		return false
	}
}

// Tokenizer produces a lazy stream of tokens over a source string. It
// supports single-token logical lookahead via Peek/Back: Back rewinds
// the cursor to the start of the given token, so the next Next call
// re-scans it. Position based, not stream-state based, per spec §4.2.
type Tokenizer struct {
	src string
	pos int
}

func NewTokenizer(src string) *Tokenizer {
	return &Tokenizer{src: src}
}

// Back resets the cursor to the offset of tok, so the next Next call
// re-produces tok.
func (t *Tokenizer) Back(tok Token) {
	t.pos = tok.Offset
}

// Peek returns the next token without consuming it.
func (t *Tokenizer) Peek() Token {
	tok := t.Next()
	t.Back(tok)
	return tok
}

// Next scans and returns the next token, advancing the cursor past it.
func (t *Tokenizer) Next() Token {
	t.skipSpace()

	if t.pos >= len(t.src) {
		return Token{Kind: EndOfInput, Offset: t.pos}
	}

	start := t.pos
	c := t.src[t.pos]

	switch {
	case isDigit(c):
		return t.scanNumber(start)
	case isAlpha(c):
		return t.scanSymbol(start)
	case isOperatorByte(c):
		t.pos++
		return Token{Kind: Operator, Offset: start, Length: 1, Op: c}
	case c == '(':
		t.pos++
		return Token{Kind: LParen, Offset: start, Length: 1}
	case c == ')':
		t.pos++
		return Token{Kind: RParen, Offset: start, Length: 1}
	case c == ',':
		t.pos++
		return Token{Kind: Comma, Offset: start, Length: 1}
	case c == ';':
		t.pos++
		return Token{Kind: Semicolon, Offset: start, Length: 1}
	default:
		t.pos++
		return Token{Kind: InvalidToken, Offset: start, Length: 1}
	}
}

func (t *Tokenizer) skipSpace() {
	for t.pos < len(t.src) && isSpace(t.src[t.pos]) {
		t.pos++
	}
}

// scanNumber consumes digit+ ('.' digit*)? and rejects a number that is
// immediately followed by an alpha byte (spec §4.2: "an immediately
// following alpha byte is a lex error").
func (t *Tokenizer) scanNumber(start int) Token {
	kind := Integer

	for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
		t.pos++
	}
	if t.pos < len(t.src) && t.src[t.pos] == '.' {
		kind = Float
		t.pos++
		for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
			t.pos++
		}
	}

	if t.pos < len(t.src) && isAlpha(t.src[t.pos]) {
		// consume the offending identifier so the caller sees one bad
		// token instead of re-lexing its tail as a separate symbol
		for t.pos < len(t.src) && isAlnum(t.src[t.pos]) {
			t.pos++
		}
		return Token{Kind: InvalidToken, Offset: start, Length: t.pos - start}
	}

	text := t.src[start:t.pos]
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return Token{Kind: InvalidToken, Offset: start, Length: t.pos - start}
	}

	return Token{Kind: kind, Offset: start, Length: t.pos - start, Payload: text}
}

func (t *Tokenizer) scanSymbol(start int) Token {
	for t.pos < len(t.src) && isAlnum(t.src[t.pos]) {
		t.pos++
	}
	return Token{Kind: Symbol, Offset: start, Length: t.pos - start, Payload: t.src[start:t.pos]}
}

// ParseNumber narrows a scanned number token's text to f32, matching
// the ASCII-only base-10 conversion spec §4.2 requires. The ok flag is
// false if text does not fully parse as a number.
func ParseNumber(text string) (value float32, ok bool) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}
