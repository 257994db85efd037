package capsql_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mickamy/capsql"
)

type OrderItem struct{}

type Person struct{}

type account struct{}

func (*account) TableName() string { return "billing.accounts" }

type blank struct{}

func (blank) TableName() string { return " " }

func TestTableName(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name   string
		target any
		want   string
	}{
		{name: "string", target: " users ", want: "users"},
		{name: "struct", target: OrderItem{}, want: "order_items"},
		{name: "pointer", target: &OrderItem{}, want: "order_items"},
		{name: "irregular plural", target: Person{}, want: "people"},
		{name: "pointer receiver namer", target: &account{}, want: "billing.accounts"},
		{name: "value of pointer receiver namer", target: account{}, want: "billing.accounts"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := capsql.TableName(tc.target)
			if err != nil {
				t.Fatalf("TableName(%T) error = %v", tc.target, err)
			}
			if got != tc.want {
				t.Fatalf("TableName(%T) = %q, want %q", tc.target, got, tc.want)
			}
		})
	}
}

func TestTableName_Errors(t *testing.T) {
	t.Parallel()

	var nilPtr *OrderItem
	for _, target := range []any{nil, "", nilPtr, 42, struct{}{}, blank{}} {
		if _, err := capsql.TableName(target); err == nil {
			t.Fatalf("TableName(%#v) = nil error, want error", target)
		}
	}
}

func TestSession_ForTable(t *testing.T) {
	src := &fakeSource{}
	e := capsql.New(src, capsql.WithPretty(false))

	s, err := e.Capture(func(*capsql.Session) error {
		src.run("INSERT INTO order_items (id) VALUES (1)")
		src.run("SELECT * FROM users")
		src.run(`UPDATE "public"."order_items" SET qty = 2`)
		src.run("DELETE FROM billing.accounts WHERE id = 1")
		return nil
	})
	require.NoError(t, err)

	items, err := s.ForTable(OrderItem{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "INSERT", items[0].Op)
	require.Equal(t, "UPDATE", items[1].Op)

	accounts, err := s.ForTable(&account{})
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	_, err = s.ForTable(nil)
	require.Error(t, err)
}
