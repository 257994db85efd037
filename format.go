package capsql

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/mickamy/capsql/internal/sqlfmt"
)

// FormatOptions controls how Format renders a statement.
type FormatOptions struct {
	Pretty     bool // reindent into the canonical multi-line layout
	Color      bool // ANSI highlighting; only applies when Pretty is set
	ShowParams bool // append a "-- params: (...)" line
}

// Format renders stmt for display. It never fails: when the statement cannot be
// reindented or highlighted the raw text is used instead.
func Format(stmt string, args []any, opts FormatOptions) string {
	text := render(stmt, args, opts.Pretty, opts.ShowParams)
	if opts.Color && opts.Pretty {
		return colorize(text)
	}
	return text
}

// render produces the uncolored display text stored on Statement.
func render(stmt string, args []any, pretty, showParams bool) string {
	text := stmt
	if pretty {
		text = reindent(stmt)
	}
	if showParams {
		text += "\n-- params: " + formatArgs(args)
	}
	return text
}

func reindent(stmt string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = stmt
		}
	}()
	s, err := sqlfmt.Reindent(stmt)
	if err != nil {
		return stmt
	}
	return s
}

func colorize(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = text
		}
	}()
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, text, "sql", "terminal", "monokai"); err != nil {
		return text
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatArgs(args []any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("%v", args)
		}
	}()
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = formatArg(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatArg(v any) string {
	switch a := v.(type) {
	case nil:
		return "NULL"
	case sql.NamedArg:
		return a.Name + "=" + formatArg(a.Value)
	case driver.NamedValue:
		if a.Name != "" {
			return a.Name + "=" + formatArg(a.Value)
		}
		return formatArg(a.Value)
	case string:
		return quoteLiteral(a)
	case []byte:
		return "x'" + hex.EncodeToString(a) + "'"
	case time.Time:
		return quoteLiteral(a.Format(time.RFC3339Nano))
	case driver.Valuer:
		dv, err := a.Value()
		if err != nil {
			return fmt.Sprintf("%v", a)
		}
		return formatArg(dv)
	default:
		return fmt.Sprintf("%v", a)
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
