package sqlfmt_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mickamy/capsql/internal/sqlfmt"
)

func TestReindent(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "select columns aligned",
			in:   "SELECT users.id, users.name, users.email \nFROM users \nWHERE users.name = ?",
			want: "SELECT users.id,\n       users.name,\n       users.email\nFROM users\nWHERE users.name = ?",
		},
		{
			name: "insert values",
			in:   "INSERT INTO users (name, email) VALUES (?, ?)",
			want: "INSERT INTO users (name, email)\nVALUES (?, ?)",
		},
		{
			name: "keywords upper-cased",
			in:   "select id, name from users where id = $1 and name like 'a%' order by name limit 10",
			want: "SELECT id,\n       name\nFROM users\nWHERE id = $1\n  AND name LIKE 'a%'\nORDER BY name\nLIMIT 10",
		},
		{
			name: "join",
			in:   "SELECT u.id FROM users u LEFT JOIN orders o ON o.user_id = u.id WHERE o.total > 10",
			want: "SELECT u.id\nFROM users u\nLEFT JOIN orders o ON o.user_id = u.id\nWHERE o.total > 10",
		},
		{
			name: "subquery",
			in:   "SELECT id FROM users WHERE id IN (SELECT user_id FROM orders WHERE total > 10)",
			want: "SELECT id\nFROM users\nWHERE id IN (SELECT user_id\n" +
				strings.Repeat(" ", 13) + "FROM orders\n" +
				strings.Repeat(" ", 13) + "WHERE total > 10)",
		},
		{
			name: "between keeps its and",
			in:   "SELECT * FROM t WHERE a BETWEEN 1 AND 2 AND b = 3",
			want: "SELECT *\nFROM t\nWHERE a BETWEEN 1 AND 2\n  AND b = 3",
		},
		{
			name: "multiple statements",
			in:   "select 1; select 2;",
			want: "SELECT 1;\n\nSELECT 2;",
		},
		{
			name: "line comment",
			in:   "SELECT 1 -- one\nFROM t",
			want: "SELECT 1 -- one\nFROM t",
		},
		{
			name: "quoted identifiers are not keywords",
			in:   `SELECT "from", "select" FROM "order"`,
			want: "SELECT \"from\",\n       \"select\"\nFROM \"order\"",
		},
		{
			name: "insert select",
			in:   "INSERT INTO archive SELECT * FROM users",
			want: "INSERT INTO archive\nSELECT *\nFROM users",
		},
		{
			name: "update",
			in:   "update users set name = ? where id = ?",
			want: "UPDATE users\nSET name = ?\nWHERE id = ?",
		},
		{
			name: "delete",
			in:   "delete from users where id = ?",
			want: "DELETE FROM users\nWHERE id = ?",
		},
		{
			name: "cast",
			in:   "SELECT id::text FROM t",
			want: "SELECT id::text\nFROM t",
		},
		{
			name: "dollar quoted body",
			in:   "DO $$ BEGIN PERFORM 1; END $$",
			want: "DO $$ BEGIN PERFORM 1; END $$",
		},
		{
			name: "empty",
			in:   "   ",
			want: "",
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := sqlfmt.Reindent(tc.in)
			if err != nil {
				t.Fatalf("Reindent(%q) error = %v", tc.in, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Reindent(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}

			again, err := sqlfmt.Reindent(got)
			if err != nil {
				t.Fatalf("Reindent(Reindent(%q)) error = %v", tc.in, err)
			}
			if diff := cmp.Diff(got, again); diff != "" {
				t.Fatalf("Reindent is not idempotent for %q (-first +second):\n%s", tc.in, diff)
			}
		})
	}
}

func TestReindent_Unterminated(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"SELECT 'oops",
		`SELECT "oops`,
		"SELECT 1 /* never closed",
		"DO $body$ BEGIN",
	} {
		if _, err := sqlfmt.Reindent(in); !errors.Is(err, sqlfmt.ErrUnterminated) {
			t.Fatalf("Reindent(%q) error = %v, want ErrUnterminated", in, err)
		}
	}
}

func TestSplit(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "script",
			in:   "CREATE TABLE t (id INT); INSERT INTO t VALUES (1);\n-- trailing\n",
			want: []string{"CREATE TABLE t (id INT)", "INSERT INTO t VALUES (1)"},
		},
		{
			name: "semicolon in literal",
			in:   "SELECT ';'; SELECT 2",
			want: []string{"SELECT ';'", "SELECT 2"},
		},
		{
			name: "only comments",
			in:   "/* nothing */ ; -- here",
			want: nil,
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := sqlfmt.Split(tc.in)
			if err != nil {
				t.Fatalf("Split(%q) error = %v", tc.in, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Split(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}
