package capsql_test

import (
	"database/sql"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mickamy/capsql"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestFormat(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		sql  string
		args []any
		opts capsql.FormatOptions
		want string
	}{
		{
			name: "raw text is kept verbatim",
			sql:  "select  id\n from users",
			want: "select  id\n from users",
		},
		{
			name: "color has no effect without pretty",
			sql:  "select id from users",
			opts: capsql.FormatOptions{Color: true},
			want: "select id from users",
		},
		{
			name: "pretty",
			sql:  "SELECT users.id, users.name, users.email \nFROM users \nWHERE users.name = ?",
			opts: capsql.FormatOptions{Pretty: true},
			want: "SELECT users.id,\n       users.name,\n       users.email\nFROM users\nWHERE users.name = ?",
		},
		{
			name: "params",
			sql:  "INSERT INTO t (a, b, c, d) VALUES (?, ?, ?, ?)",
			args: []any{"it's", 42, nil, []byte{0xde, 0xad}},
			opts: capsql.FormatOptions{ShowParams: true},
			want: "INSERT INTO t (a, b, c, d) VALUES (?, ?, ?, ?)\n-- params: ('it''s', 42, NULL, x'dead')",
		},
		{
			name: "named params",
			sql:  "SELECT * FROM t WHERE id = :id",
			args: []any{sql.Named("id", 7)},
			opts: capsql.FormatOptions{ShowParams: true},
			want: "SELECT * FROM t WHERE id = :id\n-- params: (id=7)",
		},
		{
			name: "time params",
			sql:  "SELECT ?",
			args: []any{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
			opts: capsql.FormatOptions{ShowParams: true},
			want: "SELECT ?\n-- params: ('2024-01-02T03:04:05Z')",
		},
		{
			name: "empty params",
			sql:  "SELECT 1",
			opts: capsql.FormatOptions{ShowParams: true},
			want: "SELECT 1\n-- params: ()",
		},
		{
			name: "unparsable text falls back to raw",
			sql:  "SELECT 'unterminated",
			opts: capsql.FormatOptions{Pretty: true},
			want: "SELECT 'unterminated",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := capsql.Format(tc.sql, tc.args, tc.opts)
			require.Equal(t, tc.want, got)
			require.Equal(t, got, capsql.Format(tc.sql, tc.args, tc.opts), "must be deterministic")
		})
	}
}

func TestFormat_Color(t *testing.T) {
	t.Parallel()

	const q = "select id from users where name = ?"
	plainText := capsql.Format(q, nil, capsql.FormatOptions{Pretty: true})
	colored := capsql.Format(q, nil, capsql.FormatOptions{Pretty: true, Color: true})

	require.NotEqual(t, plainText, colored)
	require.True(t, strings.Contains(colored, "\x1b["), colored)
	require.Equal(t, plainText, ansi.ReplaceAllString(colored, ""))
}
