// Package ident handles table identifiers as they appear in SQL text.
package ident

import (
	"strings"
	"unicode"
)

// quotes maps an opening identifier quote to its closing counterpart:
// standard double quotes, MySQL backticks and SQL Server brackets.
var quotes = map[rune]rune{'"': '"', '`': '`', '[': ']'}

// SplitQualified splits a potentially schema-qualified identifier into its parts.
// Quoted parts are returned unquoted.
func SplitQualified(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	var (
		parts  []string
		cur    strings.Builder
		closer rune
	)
	runes := []rune(name)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case closer != 0 && r == closer:
			// doubled closing quote is an escaped one
			if i+1 < len(runes) && runes[i+1] == closer {
				cur.WriteRune(r)
				i++
				continue
			}
			closer = 0
		case closer != 0:
			cur.WriteRune(r)
		case quotes[r] != 0:
			closer = quotes[r]
		case r == '.':
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(parts, strings.TrimSpace(cur.String()))
}

// StripAlias cuts s at the first unquoted space, dropping an alias that
// follows a table reference. Quotes are kept.
func StripAlias(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), ",;")
	var closer rune
	for i, r := range s {
		switch {
		case closer != 0:
			if r == closer {
				closer = 0
			}
		case quotes[r] != 0:
			closer = quotes[r]
		case unicode.IsSpace(r):
			return s[:i]
		}
	}
	return s
}

// BaseTableName returns the last segment of a qualified identifier.
func BaseTableName(name string) string {
	parts := SplitQualified(name)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
