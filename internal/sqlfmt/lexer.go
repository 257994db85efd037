// Package sqlfmt reindents SQL text into a canonical multi-line layout.
//
// The lexer is dialect-neutral: it understands quoting, comments and the
// common placeholder styles (?, $1, :name, @name) well enough to find
// clause boundaries, and otherwise passes text through untouched.
//
// It is written here rather than delegated to a library: the Go SQL
// formatters and parsers available (pg_query_go and similar) are tied to a
// single dialect, rewrite literals and drop comments, and none produce the
// layout used here (one clause per line, select-list columns aligned under
// the first one). Highlighting is left to chroma in the capsql package.
package sqlfmt

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnterminated is returned when a literal, quoted identifier or comment never closes.
var ErrUnterminated = errors.New("sqlfmt: unterminated token")

type kind int

const (
	kindSpace kind = iota
	kindLineComment
	kindBlockComment
	kindWord
	kindQuoted
	kindString
	kindNumber
	kindParam
	kindPunct
	kindOperator
)

type token struct {
	kind  kind
	text  string
	start int
	end   int
}

func (t token) is(text string) bool {
	return t.kind == kindPunct && t.text == text
}

func (t token) keyword() string {
	if t.kind != kindWord {
		return ""
	}
	return strings.ToUpper(t.text)
}

func lex(src string) ([]token, error) {
	var out []token
	i := 0
	for i < len(src) {
		start := i
		r, size := utf8.DecodeRuneInString(src[i:])
		var k kind
		switch {
		case unicode.IsSpace(r):
			k = kindSpace
			i += size
			for i < len(src) {
				r2, s2 := utf8.DecodeRuneInString(src[i:])
				if !unicode.IsSpace(r2) {
					break
				}
				i += s2
			}
		case strings.HasPrefix(src[i:], "--"):
			k = kindLineComment
			if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
				i += j
			} else {
				i = len(src)
			}
		case strings.HasPrefix(src[i:], "/*"):
			k = kindBlockComment
			j := strings.Index(src[i+2:], "*/")
			if j < 0 {
				return nil, fmt.Errorf("%w: block comment at offset %d", ErrUnterminated, start)
			}
			i += 2 + j + 2
		case r == '\'':
			k = kindString
			end, ok := scanQuoted(src, i, '\'')
			if !ok {
				return nil, fmt.Errorf("%w: string literal at offset %d", ErrUnterminated, start)
			}
			i = end
		case r == '"' || r == '`':
			k = kindQuoted
			end, ok := scanQuoted(src, i, byte(r))
			if !ok {
				return nil, fmt.Errorf("%w: quoted identifier at offset %d", ErrUnterminated, start)
			}
			i = end
		case r == '$':
			if tag, ok := dollarTag(src[i:]); ok {
				k = kindString
				j := strings.Index(src[i+len(tag):], tag)
				if j < 0 {
					return nil, fmt.Errorf("%w: dollar-quoted string at offset %d", ErrUnterminated, start)
				}
				i += len(tag) + j + len(tag)
			} else {
				k = kindParam
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
		case r == '?':
			k = kindParam
			i++
		case (r == ':' || r == '@') && i+1 < len(src) && isWordStart(rune(src[i+1])) && (i == 0 || src[i-1] != ':'):
			k = kindParam
			i++
			i = scanWord(src, i)
		case unicode.IsDigit(r):
			k = kindNumber
			for i < len(src) && (isDigit(src[i]) || src[i] == '.' || isLetter(src[i])) {
				i++
			}
		case isWordStart(r):
			k = kindWord
			i = scanWord(src, i)
		case strings.ContainsRune("(),;.", r):
			k = kindPunct
			i += size
		default:
			k = kindOperator
			i += size
			for i < len(src) && strings.IndexByte("+-*/<>=~!%^&|#:", src[i]) >= 0 &&
				!strings.HasPrefix(src[i:], "--") && !strings.HasPrefix(src[i:], "/*") {
				i++
			}
		}
		out = append(out, token{kind: k, text: src[start:i], start: start, end: i})
	}
	return out, nil
}

func scanQuoted(src string, i int, q byte) (int, bool) {
	i++
	for i < len(src) {
		if src[i] == q {
			if i+1 < len(src) && src[i+1] == q {
				i += 2
				continue
			}
			return i + 1, true
		}
		i++
	}
	return i, false
}

// dollarTag reports the opening tag of a dollar-quoted string ($$ or $name$).
func dollarTag(s string) (string, bool) {
	if len(s) < 2 || s[0] != '$' {
		return "", false
	}
	if isDigit(s[1]) {
		return "", false
	}
	for j := 1; j < len(s); j++ {
		c := s[j]
		if c == '$' {
			return s[:j+1], true
		}
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return "", false
		}
	}
	return "", false
}

func scanWord(src string, i int) int {
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if !isWordStart(r) && !unicode.IsDigit(r) && r != '$' {
			break
		}
		i += size
	}
	return i
}

func isWordStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
