package sqlfmt

import "strings"

// Split breaks a script into statements at top-level semicolons.
// Statements are trimmed and returned without the terminating semicolon;
// pieces holding only whitespace or comments are dropped.
func Split(script string) ([]string, error) {
	toks, err := lex(script)
	if err != nil {
		return nil, err
	}

	var out []string
	depth := 0
	start := 0
	significant := false
	flush := func(end int) {
		if significant {
			out = append(out, strings.TrimSpace(script[start:end]))
		}
		significant = false
	}
	for _, t := range toks {
		switch {
		case t.is("("):
			depth++
		case t.is(")") && depth > 0:
			depth--
		case t.is(";") && depth == 0:
			flush(t.start)
			start = t.end
			continue
		}
		switch t.kind {
		case kindSpace, kindLineComment, kindBlockComment:
		default:
			significant = true
		}
	}
	flush(len(script))
	return out, nil
}
