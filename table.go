package capsql

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"

	"github.com/mickamy/capsql/internal/ident"
)

// TableNamer lets a model report the table it is stored in.
type TableNamer interface {
	TableName() string
}

var tableNamerType = reflect.TypeOf((*TableNamer)(nil)).Elem()

// TableName resolves the table a target refers to. target may be a table name,
// a TableNamer, or a named struct (or pointer to one) whose type name is
// converted to its plural snake_case form (OrderItem -> order_items).
func TableName(target any) (string, error) {
	switch v := target.(type) {
	case nil:
		return "", errors.New("capsql: nil table target")
	case string:
		if name := strings.TrimSpace(v); name != "" {
			return name, nil
		}
		return "", errors.New("capsql: empty table name")
	case TableNamer:
		return namerTable(v)
	}

	typ := reflect.TypeOf(target)
	if typ.Kind() == reflect.Pointer {
		if reflect.ValueOf(target).IsNil() {
			return "", fmt.Errorf("capsql: nil pointer target %T", target)
		}
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return "", fmt.Errorf("capsql: unsupported table target %T", target)
	}
	// TableName declared on the pointer receiver of a value target
	if reflect.PointerTo(typ).Implements(tableNamerType) {
		return namerTable(reflect.New(typ).Interface().(TableNamer))
	}
	if typ.Name() == "" {
		return "", fmt.Errorf("capsql: cannot derive table name for anonymous struct %v", typ)
	}
	return inflection.Plural(snakeCase(typ.Name())), nil
}

func namerTable(n TableNamer) (string, error) {
	name := strings.TrimSpace(n.TableName())
	if name == "" {
		return "", fmt.Errorf("capsql: TableName returned empty string. %T", n)
	}
	return name, nil
}

func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// sameTable compares table references by their unqualified, unquoted name.
func sameTable(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(ident.BaseTableName(a), ident.BaseTableName(b))
}

// ForTable returns the statements whose primary table is the one target
// resolves to (see TableName). Schema qualification is ignored.
func (s *Session) ForTable(target any) ([]Statement, error) {
	name, err := TableName(target)
	if err != nil {
		return nil, err
	}
	return s.Filter(func(st Statement) bool { return sameTable(st.Table, name) }), nil
}
