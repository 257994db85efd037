package query

import (
	"regexp"
	"strings"

	"github.com/mickamy/capsql/internal/ident"
)

// Operation names reported by Classify.
const (
	OpSelect = "SELECT"
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
	OpOther  = "OTHER"
)

// Kind describes the top-level operation of a statement.
type Kind struct {
	Op    string // SELECT, INSERT, UPDATE, DELETE, OTHER
	Table string // possibly schema-qualified; empty when unknown
}

var (
	reInsert = regexp.MustCompile(`(?is)^\s*(?:with\b.*?\)\s*)?insert\s+(?:or\s+\w+\s+)?into\s+([^\s(]+)`)
	reUpdate = regexp.MustCompile(`(?is)^\s*(?:with\b.*?\)\s*)?update\s+([^\s]+(?:\s+(?:as\s+)?[^\s]+)?)\s+set\b`)
	reDelete = regexp.MustCompile(`(?is)^\s*(?:with\b.*?\)\s*)?delete\s+from\s+([^\s]+(?:\s+(?:as\s+)?[^\s]+)?)`)
	reSelect = regexp.MustCompile(`(?is)^[\s(]*(?:with\b.*?\)\s*)?select\b`)
	reFrom   = regexp.MustCompile(`(?is)\bfrom\s+([^\s,;()]+)`)
)

// Classify recognizes the top-level operation of q. Unknown statements are OpOther.
func Classify(q string) Kind {
	qs := strings.TrimSpace(q)
	if m := reInsert.FindStringSubmatch(qs); len(m) == 2 {
		return Kind{Op: OpInsert, Table: ident.StripAlias(m[1])}
	}
	if m := reUpdate.FindStringSubmatch(qs); len(m) == 2 {
		return Kind{Op: OpUpdate, Table: ident.StripAlias(m[1])}
	}
	if m := reDelete.FindStringSubmatch(qs); len(m) == 2 {
		return Kind{Op: OpDelete, Table: ident.StripAlias(m[1])}
	}
	if reSelect.MatchString(qs) {
		k := Kind{Op: OpSelect}
		if m := reFrom.FindStringSubmatch(qs); len(m) == 2 {
			k.Table = ident.StripAlias(m[1])
		}
		return k
	}
	return Kind{Op: OpOther}
}

// BaseTable returns the unqualified, unquoted table name of k.
func (k Kind) BaseTable() string {
	if k.Table == "" {
		return ""
	}
	return ident.BaseTableName(k.Table)
}
