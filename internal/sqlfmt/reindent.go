package sqlfmt

import (
	"strings"
	"unicode/utf8"
)

var keywords = toSet(
	"ALL", "ALTER", "AND", "AS", "ASC", "BEGIN", "BETWEEN", "BY", "CASE", "CAST",
	"COMMIT", "CONFLICT", "CREATE", "CROSS", "DEFAULT", "DELETE", "DESC", "DISTINCT",
	"DO", "DROP", "ELSE", "END", "EXCEPT", "EXISTS", "FALSE", "FETCH", "FROM", "FULL",
	"GROUP", "HAVING", "IF", "ILIKE", "IN", "INDEX", "INNER", "INSERT", "INTERSECT",
	"INTO", "IS", "JOIN", "LEFT", "LIKE", "LIMIT", "NATURAL", "NOT", "NOTHING", "NULL",
	"OFFSET", "ON", "OR", "ORDER", "OUTER", "OVER", "PARTITION", "PRIMARY", "RECURSIVE",
	"REFERENCES", "RELEASE", "RETURNING", "RIGHT", "ROLLBACK", "SAVEPOINT", "SELECT",
	"SET", "TABLE", "THEN", "TRUE", "UNION", "UNIQUE", "UPDATE", "USING", "VALUES",
	"WHEN", "WHERE", "WINDOW", "WITH",
)

// clauses start a new line at the enclosing indent.
var clauses = toSet(
	"FROM", "WHERE", "GROUP", "ORDER", "HAVING", "LIMIT", "OFFSET", "FETCH", "VALUES",
	"SET", "RETURNING", "UNION", "INTERSECT", "EXCEPT", "WINDOW", "SELECT",
)

var joinPrefixes = toSet("LEFT", "RIGHT", "INNER", "FULL", "CROSS", "NATURAL", "OUTER")

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func in(set map[string]struct{}, w string) bool {
	_, ok := set[w]
	return ok
}

// frame is one indentation scope: the statement itself or a parenthesized subquery.
type frame struct {
	base      int
	depth     int
	started   bool
	clause    string
	selectCol int
	between   bool
}

type writer struct {
	b      strings.Builder
	col    int
	frames []*frame
	depth  int
	// breakNext forces a newline before the next token (after a line comment).
	breakNext bool
}

func (w *writer) top() *frame {
	return w.frames[len(w.frames)-1]
}

func (w *writer) atFrameLevel() bool {
	return w.depth == w.top().depth
}

func (w *writer) write(s string) {
	w.b.WriteString(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		w.col = utf8.RuneCountInString(s[i+1:])
		return
	}
	w.col += utf8.RuneCountInString(s)
}

func (w *writer) newline(indent int) {
	out := strings.TrimRight(w.b.String(), " ")
	w.b.Reset()
	w.b.WriteString(out)
	w.b.WriteByte('\n')
	w.b.WriteString(strings.Repeat(" ", indent))
	w.col = indent
}

func (w *writer) lineEmpty() bool {
	return w.col == w.top().base || w.b.Len() == 0
}

// Reindent rewrites sql into the canonical layout. It returns an error only
// when the input cannot be tokenized; callers should fall back to the raw text.
func Reindent(sql string) (string, error) {
	toks, err := lex(sql)
	if err != nil {
		return "", err
	}

	// Significant tokens, each remembering whether whitespace preceded it.
	type item struct {
		token
		space bool
	}
	var items []item
	space := false
	for _, t := range toks {
		if t.kind == kindSpace {
			space = true
			continue
		}
		items = append(items, item{token: t, space: space})
		space = false
	}

	w := &writer{frames: []*frame{{selectCol: -1}}}
	for i, it := range items {
		var prev, next *item
		prevKw, nextKw := "", ""
		if i > 0 {
			prev = &items[i-1]
			prevKw = prev.keyword()
		}
		if i+1 < len(items) {
			next = &items[i+1]
			nextKw = next.keyword()
		}

		text := it.text
		kw := it.keyword()
		if kw != "" && in(keywords, kw) && (prev == nil || !prev.is(".")) && (next == nil || !next.is(".")) {
			text = kw
		} else {
			kw = ""
		}

		f := w.top()
		broke := false
		if w.breakNext {
			w.newline(f.base)
			w.breakNext = false
			broke = true
		}

		if kw != "" && w.atFrameLevel() && f.started && !broke {
			if breaksBefore(kw, prevKw, nextKw) {
				w.newline(f.base)
				broke = true
			} else if (kw == "AND" || kw == "OR") && (f.clause == "WHERE" || f.clause == "HAVING") {
				if kw == "AND" && f.between {
					f.between = false
				} else {
					w.newline(f.base + 2)
					broke = true
				}
			}
		}

		if it.is(")") && w.depth > 0 {
			if w.depth == f.depth && len(w.frames) > 1 {
				w.frames = w.frames[:len(w.frames)-1]
			}
			w.depth--
		}

		if !broke && it.space && !w.lineEmpty() {
			w.write(" ")
		}

		cur := w.top()
		if cur.clause == "SELECT" && cur.selectCol < 0 && w.depth == cur.depth &&
			kw != "SELECT" && kw != "DISTINCT" && kw != "ALL" {
			cur.selectCol = w.col
		}
		w.write(text)
		cur.started = true

		if kw != "" && w.atFrameLevel() {
			switch {
			case in(clauses, kw):
				cur.clause = kw
				cur.between = false
				if kw == "SELECT" {
					cur.selectCol = -1
				}
			case kw == "BETWEEN":
				cur.between = true
			}
		}

		switch {
		case it.kind == kindLineComment:
			w.breakNext = true
		case it.is("("):
			w.depth++
			if nextKw == "SELECT" || nextKw == "WITH" {
				w.frames = append(w.frames, &frame{base: w.col, depth: w.depth, selectCol: -1})
			}
		case it.is(",") && w.atFrameLevel() && cur.clause == "SELECT" && cur.selectCol >= 0:
			w.newline(cur.selectCol)
			w.breakNext = false
			// The next token must not add its own separator.
			if next != nil {
				next.space = false
			}
		case it.is(";") && w.depth == 0 && next != nil:
			w.frames = []*frame{{selectCol: -1}}
			w.b.WriteString("\n\n")
			w.col = 0
			next.space = false
		}
	}
	return strings.TrimRight(w.b.String(), " \n"), nil
}

func breaksBefore(kw, prevKw, nextKw string) bool {
	switch {
	case kw == "FROM":
		return prevKw != "DELETE" && prevKw != "DISTINCT"
	case kw == "SET":
		// ON CONFLICT ... DO UPDATE SET stays on the conflict line.
		return prevKw != "UPDATE"
	case kw == "VALUES":
		return prevKw != "DEFAULT"
	case in(clauses, kw):
		return true
	case in(joinPrefixes, kw):
		if in(joinPrefixes, prevKw) {
			return false
		}
		return nextKw == "JOIN" || in(joinPrefixes, nextKw)
	case kw == "JOIN":
		return !in(joinPrefixes, prevKw)
	}
	return false
}
