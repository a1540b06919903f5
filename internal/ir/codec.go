package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatValue renders a value in the netcomm string form.
//
// Doubles always carry a '.', an exponent, or an inf/nan token so that
// ParseAny reads them back as doubles. Arrays render as "[a,b,...]".
// A nil value renders as the empty string.
func FormatValue(v Value) string {
	var sb strings.Builder
	formatInto(&sb, v)
	return sb.String()
}

func formatInto(sb *strings.Builder, v Value) {
	switch val := v.(type) {
	case nil:
	case Bool:
		sb.WriteString(strconv.FormatBool(bool(val)))
	case Int:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case Double:
		sb.WriteString(formatDouble(float64(val)))
	case Array:
		sb.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			formatInto(sb, elem)
		}
		sb.WriteByte(']')
	}
}

func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ParseValue parses the netcomm string form of a value of kind k.
// An integer literal is accepted for KindDouble.
func ParseValue(k Kind, s string) (Value, error) {
	v, err := ParseAny(s)
	if err != nil {
		return nil, err
	}
	cv, err := Coerce(v, k)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	return cv, nil
}

// ParseAny parses the netcomm string form, inferring the kind.
func ParseAny(s string) (Value, error) {
	p := &valueParser{src: s}
	v, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("parse %q: trailing input at offset %d", s, p.pos)
	}
	return v, nil
}

type valueParser struct {
	src string
	pos int
}

func (p *valueParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *valueParser) parse() (Value, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("parse %q: unexpected end of input", p.src)
	}
	if p.src[p.pos] == '[' {
		return p.parseArray()
	}
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(",] \t", rune(p.src[p.pos])) {
		p.pos++
	}
	return parseScalar(p.src[start:p.pos])
}

func (p *valueParser) parseArray() (Value, error) {
	p.pos++ // '['
	arr := Array{}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return arr, nil
	}
	for {
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		arr = append(arr, elem)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("parse %q: unterminated array", p.src)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return arr, nil
		default:
			return nil, fmt.Errorf("parse %q: unexpected %q at offset %d", p.src, p.src[p.pos], p.pos)
		}
	}
}

func parseScalar(tok string) (Value, error) {
	switch tok {
	case "":
		return nil, fmt.Errorf("empty scalar")
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "nan":
		return Double(math.NaN()), nil
	case "inf", "+inf":
		return Double(math.Inf(1)), nil
	case "-inf":
		return Double(math.Inf(-1)), nil
	}
	if !strings.ContainsAny(tok, ".eE") {
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", tok, err)
		}
		return Int(n), nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid double %q: %w", tok, err)
	}
	return Double(f), nil
}
