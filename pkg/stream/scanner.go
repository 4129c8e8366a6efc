package stream

import (
	"encoding/json"
	"fmt"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// parseState is what the scanner expects next outside of a token.
type parseState uint8

const (
	stateValue parseState = iota
	stateValueOrArrayEnd
	stateKeyOrObjectEnd
	stateKey
	stateColon
	stateCommaOrEnd
	stateDone
)

type tokenKind uint8

const (
	tokNone tokenKind = iota
	tokString
	tokNumber
	tokLiteral
)

// scanner is a byte-at-a-time JSON scanner. It carries all of its state
// between feed calls so tokens may span chunk boundaries.
type scanner struct {
	state parseState
	stack []byte // '{' or '[' per open container

	tok     tokenKind
	buf     []byte // bytes of the token in progress
	escaped bool
	isKey   bool

	offset   int64
	maxDepth int
	emit     func(Event) error
}

func newScanner(maxDepth int, emit func(Event) error) *scanner {
	return &scanner{maxDepth: maxDepth, emit: emit}
}

func (s *scanner) feed(chunk []byte) error {
	for _, b := range chunk {
		if err := s.step(b); err != nil {
			return err
		}
		s.offset++
	}
	return nil
}

// finish is called at end of input.
func (s *scanner) finish() error {
	switch s.tok {
	case tokNumber:
		if err := s.endNumber(); err != nil {
			return err
		}
	case tokLiteral:
		if err := s.endLiteral(); err != nil {
			return err
		}
	case tokString:
		return s.truncated()
	}
	if s.state != stateDone {
		return s.truncated()
	}
	return nil
}

func (s *scanner) step(b byte) error {
	switch s.tok {
	case tokString:
		return s.stepString(b)
	case tokNumber:
		if isNumberByte(b) {
			s.buf = append(s.buf, b)
			return nil
		}
		if err := s.endNumber(); err != nil {
			return err
		}
	case tokLiteral:
		if b >= 'a' && b <= 'z' {
			s.buf = append(s.buf, b)
			if !isLiteralPrefix(s.buf) {
				return s.errorf("invalid character %q in literal", b)
			}
			return nil
		}
		if err := s.endLiteral(); err != nil {
			return err
		}
	}
	return s.stepStructural(b)
}

func (s *scanner) stepStructural(b byte) error {
	if isSpace(b) {
		return nil
	}
	switch s.state {
	case stateDone:
		return s.errorf("invalid character %q after top-level value", b)
	case stateColon:
		if b != ':' {
			return s.errorf("invalid character %q after object key", b)
		}
		s.state = stateValue
		return nil
	case stateKeyOrObjectEnd, stateKey:
		if b == '"' {
			s.startString(true)
			return nil
		}
		if b == '}' && s.state == stateKeyOrObjectEnd {
			return s.closeContainer('{')
		}
		return s.errorf("invalid character %q looking for beginning of object key string", b)
	case stateCommaOrEnd:
		top := s.stack[len(s.stack)-1]
		switch {
		case b == ',' && top == '{':
			s.state = stateKey
			return nil
		case b == ',':
			s.state = stateValue
			return nil
		case b == '}' && top == '{', b == ']' && top == '[':
			return s.closeContainer(top)
		}
		return s.errorf("invalid character %q after %s value", b, containerName(top))
	case stateValueOrArrayEnd:
		if b == ']' {
			return s.closeContainer('[')
		}
	}
	return s.startValue(b)
}

func (s *scanner) startValue(b byte) error {
	switch {
	case b == '{' || b == '[':
		if len(s.stack) >= s.maxDepth {
			return s.errorf("exceeded max depth %d", s.maxDepth)
		}
		typ := EventBeginArray
		s.state = stateValueOrArrayEnd
		if b == '{' {
			typ = EventBeginObject
			s.state = stateKeyOrObjectEnd
		}
		if err := s.emit(Event{Type: typ, Depth: len(s.stack)}); err != nil {
			return s.wrap(err)
		}
		s.stack = append(s.stack, b)
		return nil
	case b == '"':
		s.startString(false)
		return nil
	case b == '-' || ('0' <= b && b <= '9'):
		s.tok = tokNumber
		s.buf = append(s.buf[:0], b)
		return nil
	case b == 't' || b == 'f' || b == 'n':
		s.tok = tokLiteral
		s.buf = append(s.buf[:0], b)
		return nil
	}
	return s.errorf("invalid character %q looking for beginning of value", b)
}

func (s *scanner) closeContainer(kind byte) error {
	s.stack = s.stack[:len(s.stack)-1]
	typ := EventEndArray
	if kind == '{' {
		typ = EventEndObject
	}
	if err := s.emit(Event{Type: typ, Depth: len(s.stack)}); err != nil {
		return s.wrap(err)
	}
	s.afterValue()
	return nil
}

func (s *scanner) afterValue() {
	if len(s.stack) == 0 {
		s.state = stateDone
		return
	}
	s.state = stateCommaOrEnd
}

func (s *scanner) startString(isKey bool) {
	s.tok = tokString
	s.isKey = isKey
	s.escaped = false
	s.buf = s.buf[:0]
}

func (s *scanner) stepString(b byte) error {
	if s.escaped {
		if !isEscapeByte(b) {
			return s.errorf("invalid character %q in string escape code", b)
		}
		s.escaped = false
		s.buf = append(s.buf, b)
		return nil
	}
	switch {
	case b == '\\':
		s.escaped = true
		s.buf = append(s.buf, b)
	case b == '"':
		return s.endString()
	case b < 0x20:
		return s.errorf("invalid character %q in string literal", b)
	default:
		s.buf = append(s.buf, b)
	}
	return nil
}

func (s *scanner) endString() error {
	str, ok := unquote(s.buf)
	if !ok {
		return s.errorf("invalid string escape")
	}
	s.tok = tokNone
	s.buf = s.buf[:0]
	if s.isKey {
		s.isKey = false
		if err := s.emit(Event{Type: EventKey, Depth: len(s.stack), Key: str}); err != nil {
			return s.wrap(err)
		}
		s.state = stateColon
		return nil
	}
	return s.scalar(str)
}

func (s *scanner) endNumber() error {
	num := string(s.buf)
	s.tok = tokNone
	s.buf = s.buf[:0]
	if !isValidNumber(num) {
		return s.errorf("invalid number literal %q", num)
	}
	return s.scalar(json.Number(num))
}

func (s *scanner) endLiteral() error {
	lit := string(s.buf)
	s.tok = tokNone
	s.buf = s.buf[:0]
	switch lit {
	case "true":
		return s.scalar(true)
	case "false":
		return s.scalar(false)
	case "null":
		return s.scalar(nil)
	}
	return s.errorf("invalid literal %q", lit)
}

func (s *scanner) scalar(v any) error {
	if err := s.emit(Event{Type: EventScalar, Depth: len(s.stack), Value: v}); err != nil {
		return s.wrap(err)
	}
	s.afterValue()
	return nil
}

func (s *scanner) errorf(format string, args ...any) error {
	return &DecodeError{Offset: s.offset, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) truncated() error {
	return &DecodeError{Offset: s.offset, Msg: "unexpected end of JSON input", Err: ErrTruncated}
}

func (s *scanner) wrap(err error) error {
	if _, ok := err.(*DecodeError); ok {
		return err
	}
	return &DecodeError{Offset: s.offset, Msg: "invalid event", Err: err}
}

func containerName(kind byte) string {
	if kind == '{' {
		return "object key:value pair"
	}
	return "array element"
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isNumberByte(b byte) bool {
	return ('0' <= b && b <= '9') || b == '-' || b == '+' || b == '.' || b == 'e' || b == 'E'
}

func isEscapeByte(b byte) bool {
	switch b {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}

func isLiteralPrefix(buf []byte) bool {
	for _, lit := range [...]string{"true", "false", "null"} {
		if len(buf) <= len(lit) && lit[:len(buf)] == string(buf) {
			return true
		}
	}
	return false
}

// isValidNumber reports whether s is a JSON number literal.
func isValidNumber(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
		if s == "" {
			return false
		}
	}
	switch {
	case s[0] == '0':
		s = s[1:]
	case '1' <= s[0] && s[0] <= '9':
		s = s[1:]
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	default:
		return false
	}
	if len(s) >= 2 && s[0] == '.' && '0' <= s[1] && s[1] <= '9' {
		s = s[2:]
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	}
	if len(s) >= 2 && (s[0] == 'e' || s[0] == 'E') {
		s = s[1:]
		if s[0] == '+' || s[0] == '-' {
			s = s[1:]
			if s == "" {
				return false
			}
		}
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	}
	return s == ""
}

// unquote decodes the body of a string literal (without its quotes).
// Invalid UTF-8 and unpaired surrogates become U+FFFD.
func unquote(s []byte) (string, bool) {
	r := 0
	for r < len(s) {
		c := s[r]
		if c == '\\' || c < ' ' {
			break
		}
		if c < utf8.RuneSelf {
			r++
			continue
		}
		rr, size := utf8.DecodeRune(s[r:])
		if rr == utf8.RuneError && size == 1 {
			break
		}
		r += size
	}
	if r == len(s) {
		return string(s), true
	}

	b := make([]byte, 0, len(s)+2*utf8.UTFMax)
	b = append(b, s[:r]...)
	for r < len(s) {
		c := s[r]
		switch {
		case c == '\\':
			r++
			if r >= len(s) {
				return "", false
			}
			switch s[r] {
			case '"', '\\', '/':
				b = append(b, s[r])
				r++
			case 'b':
				b = append(b, '\b')
				r++
			case 'f':
				b = append(b, '\f')
				r++
			case 'n':
				b = append(b, '\n')
				r++
			case 'r':
				b = append(b, '\r')
				r++
			case 't':
				b = append(b, '\t')
				r++
			case 'u':
				r--
				rr := getu4(s[r:])
				if rr < 0 {
					return "", false
				}
				r += 6
				if utf16.IsSurrogate(rr) {
					rr1 := getu4(s[r:])
					if dec := utf16.DecodeRune(rr, rr1); dec != unicode.ReplacementChar {
						r += 6
						b = utf8.AppendRune(b, dec)
						break
					}
					rr = unicode.ReplacementChar
				}
				b = utf8.AppendRune(b, rr)
			default:
				return "", false
			}
		case c < ' ':
			return "", false
		case c < utf8.RuneSelf:
			b = append(b, c)
			r++
		default:
			rr, size := utf8.DecodeRune(s[r:])
			r += size
			b = utf8.AppendRune(b, rr)
		}
	}
	return string(b), true
}

// getu4 decodes \uXXXX from the beginning of s, returning -1 on failure.
func getu4(s []byte) rune {
	if len(s) < 6 || s[0] != '\\' || s[1] != 'u' {
		return -1
	}
	var r rune
	for _, c := range s[2:6] {
		switch {
		case '0' <= c && c <= '9':
			c = c - '0'
		case 'a' <= c && c <= 'f':
			c = c - 'a' + 10
		case 'A' <= c && c <= 'F':
			c = c - 'A' + 10
		default:
			return -1
		}
		r = r*16 + rune(c)
	}
	return r
}
