package doctags

import (
	"strconv"
	"strings"
)

type tokenType int

const (
	tokText tokenType = iota
	tokOpen
	tokClose
	tokLoc
)

type token struct {
	typ  tokenType
	name string // tag name for tokOpen/tokClose
	text string // raw text for tokText
	loc  int    // coordinate for tokLoc
}

// lex splits a tag stream into tokens. A '<' that does not start a
// well-formed tag is treated as literal text; models occasionally emit stray
// angle brackets inside cell content.
func lex(input string) []token {
	var tokens []token
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			tokens = append(tokens, token{typ: tokText, text: text.String()})
			text.Reset()
		}
	}

	i := 0
	for i < len(input) {
		if input[i] != '<' {
			text.WriteByte(input[i])
			i++
			continue
		}
		name, closing, width := scanTag(input[i:])
		if width == 0 {
			text.WriteByte(input[i])
			i++
			continue
		}
		flush()
		switch {
		case closing:
			tokens = append(tokens, token{typ: tokClose, name: name})
		case strings.HasPrefix(name, "loc_"):
			n, err := strconv.Atoi(name[len("loc_"):])
			if err != nil {
				n = 0
			}
			tokens = append(tokens, token{typ: tokLoc, loc: n})
		default:
			tokens = append(tokens, token{typ: tokOpen, name: name})
		}
		i += width
	}
	flush()
	return tokens
}

// scanTag matches </?[a-z_][a-z0-9_]*> at the start of s and returns the tag
// name, whether it is a closing tag, and the matched width (0 on no match).
func scanTag(s string) (name string, closing bool, width int) {
	j := 1
	if j < len(s) && s[j] == '/' {
		closing = true
		j++
	}
	start := j
	for j < len(s) {
		c := s[j]
		if c == '>' {
			break
		}
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return "", false, 0
		}
		j++
	}
	if j >= len(s) || j == start {
		return "", false, 0
	}
	return s[start:j], closing, j + 1
}
