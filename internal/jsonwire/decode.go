package jsonwire

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Unmarshal parses data under the given Options. Outside Tolerant mode
// the top-level value must be an object or array (spec 6).
func Unmarshal(data []byte, opts Options) (Value, error) {
	p := &parser{s: string(data)}
	p.skipWS()
	if p.pos >= len(p.s) {
		return Value{}, fmt.Errorf("jsonwire: empty input")
	}
	if !opts.Tolerant {
		c := p.s[p.pos]
		if c != '{' && c != '[' {
			return Value{}, fmt.Errorf("jsonwire: top-level value must be object or array")
		}
	}
	v, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	p.skipWS()
	if p.pos != len(p.s) {
		return Value{}, fmt.Errorf("jsonwire: trailing data at offset %d", p.pos)
	}
	return v, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) skipWS() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) parseValue() (Value, error) {
	p.skipWS()
	if p.pos >= len(p.s) {
		return Value{}, fmt.Errorf("jsonwire: unexpected end of input")
	}
	switch c := p.s[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case c == 't':
		return p.parseLiteral("true", Bool(true))
	case c == 'f':
		return p.parseLiteral("false", Bool(false))
	case c == 'n':
		return p.parseLiteral("null", Null())
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return Value{}, fmt.Errorf("jsonwire: unexpected character %q at offset %d", c, p.pos)
	}
}

func (p *parser) parseLiteral(lit string, v Value) (Value, error) {
	if p.pos+len(lit) > len(p.s) || p.s[p.pos:p.pos+len(lit)] != lit {
		return Value{}, fmt.Errorf("jsonwire: invalid literal at offset %d", p.pos)
	}
	p.pos += len(lit)
	return v, nil
}

func (p *parser) parseNumber() (Value, error) {
	start := p.pos
	isFloat := false
	if p.s[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if p.pos < len(p.s) && p.s[p.pos] == '.' {
		isFloat = true
		p.pos++
		for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos < len(p.s) && (p.s[p.pos] == 'e' || p.s[p.pos] == 'E') {
		isFloat = true
		p.pos++
		if p.pos < len(p.s) && (p.s[p.pos] == '+' || p.s[p.pos] == '-') {
			p.pos++
		}
		for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
	}
	lit := p.s[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(lit, 64)
		if ferr != nil {
			return Value{}, err
		}
		return Float(f), nil
	}
	return Int(i), nil
}

func (p *parser) parseArray() (Value, error) {
	p.pos++ // '['
	var arr []Value
	p.skipWS()
	if p.pos < len(p.s) && p.s[p.pos] == ']' {
		p.pos++
		return Array(arr...), nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		arr = append(arr, v)
		p.skipWS()
		if p.pos >= len(p.s) {
			return Value{}, fmt.Errorf("jsonwire: unterminated array")
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return Array(arr...), nil
		default:
			return Value{}, fmt.Errorf("jsonwire: expected ',' or ']' at offset %d", p.pos)
		}
	}
}

func (p *parser) parseObject() (Value, error) {
	p.pos++ // '{'
	obj := map[string]Value{}
	p.skipWS()
	if p.pos < len(p.s) && p.s[p.pos] == '}' {
		p.pos++
		return Object(obj), nil
	}
	for {
		p.skipWS()
		if p.pos >= len(p.s) || p.s[p.pos] != '"' {
			return Value{}, fmt.Errorf("jsonwire: expected string key at offset %d", p.pos)
		}
		key, err := p.parseString()
		if err != nil {
			return Value{}, err
		}
		p.skipWS()
		if p.pos >= len(p.s) || p.s[p.pos] != ':' {
			return Value{}, fmt.Errorf("jsonwire: expected ':' at offset %d", p.pos)
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		obj[key] = v
		p.skipWS()
		if p.pos >= len(p.s) {
			return Value{}, fmt.Errorf("jsonwire: unterminated object")
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return Object(obj), nil
		default:
			return Value{}, fmt.Errorf("jsonwire: expected ',' or '}' at offset %d", p.pos)
		}
	}
}

// parseString decodes a quoted JSON string, rejecting raw control bytes
// (they must arrive \u-escaped), unknown escapes, and every \u escape
// in the surrogate range, paired or not (only BMP escapes are accepted).
func (p *parser) parseString() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for {
		if p.pos >= len(p.s) {
			return "", fmt.Errorf("jsonwire: unterminated string")
		}
		c := p.s[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c < 0x20 {
			return "", fmt.Errorf("jsonwire: unescaped control byte 0x%02x at offset %d", c, p.pos)
		}
		if c != '\\' {
			r, size := utf8.DecodeRuneInString(p.s[p.pos:])
			if r == utf8.RuneError && size <= 1 {
				return "", fmt.Errorf("jsonwire: invalid UTF-8 at offset %d", p.pos)
			}
			b.WriteRune(r)
			p.pos += size
			continue
		}
		p.pos++
		if p.pos >= len(p.s) {
			return "", fmt.Errorf("jsonwire: dangling escape")
		}
		esc := p.s[p.pos]
		switch esc {
		case '"':
			b.WriteByte('"')
			p.pos++
		case '\\':
			b.WriteByte('\\')
			p.pos++
		case '/':
			b.WriteByte('/')
			p.pos++
		case 'b':
			b.WriteByte('\b')
			p.pos++
		case 'f':
			b.WriteByte('\f')
			p.pos++
		case 'n':
			b.WriteByte('\n')
			p.pos++
		case 'r':
			b.WriteByte('\r')
			p.pos++
		case 't':
			b.WriteByte('\t')
			p.pos++
		case 'u':
			p.pos++
			r1, err := p.readHex4()
			if err != nil {
				return "", err
			}
			if utf16.IsSurrogate(rune(r1)) {
				// This format never encodes non-BMP characters as
				// surrogate pairs (they are written raw as UTF-8), so
				// any \u escape that is a surrogate is rejected rather
				// than paired up.
				return "", fmt.Errorf("jsonwire: surrogate pair escapes are not accepted (\\u%04x)", r1)
			}
			b.WriteRune(rune(r1))
		default:
			return "", fmt.Errorf("jsonwire: invalid escape \\%c at offset %d", esc, p.pos)
		}
	}
}

func (p *parser) readHex4() (uint32, error) {
	if p.pos+4 > len(p.s) {
		return 0, fmt.Errorf("jsonwire: truncated \\u escape")
	}
	v, err := strconv.ParseUint(p.s[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("jsonwire: invalid \\u escape: %w", err)
	}
	p.pos += 4
	return uint32(v), nil
}
