// Package sqlhook binds capsql to database/sql by wrapping a driver with
// github.com/gchaincl/sqlhooks. Every statement the wrapped driver receives,
// including prepared statements and queries issued inside transactions, is
// published before the driver executes it.
package sqlhook

import (
	"context"
	"database/sql"
	"database/sql/driver"

	"github.com/gchaincl/sqlhooks"

	"github.com/mickamy/capsql"
)

// Name is reported as Statement.Source.
const Name = "sqlhook"

// Source is a capsql.Source backed by a hooked database/sql driver.
type Source struct {
	capsql.Hub
	driver driver.Driver
}

var _ capsql.Source = (*Source)(nil)

// New wraps d. Use Register or OpenDB to obtain a *sql.DB whose statements
// are observable.
func New(d driver.Driver) *Source {
	s := &Source{}
	s.driver = sqlhooks.Wrap(d, hooks{s: s})
	return s
}

// Driver returns the wrapped driver.
func (s *Source) Driver() driver.Driver {
	return s.driver
}

// Register makes the wrapped driver available to sql.Open under name.
// Like sql.Register it panics when name is already taken.
func (s *Source) Register(name string) {
	sql.Register(name, s.driver)
}

// OpenDB opens a database handle on dsn through the wrapped driver without
// registering it globally.
func (s *Source) OpenDB(dsn string) *sql.DB {
	return sql.OpenDB(connector{dsn: dsn, driver: s.driver})
}

// connector implements [driver.Connector]
type connector struct {
	dsn    string
	driver driver.Driver
}

func (c connector) Connect(_ context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c connector) Driver() driver.Driver { return c.driver }

// hooks publishes statements; it never alters the query, its args or the
// outcome of the call.
type hooks struct {
	s *Source
}

func (h hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	h.s.Publish(ctx, capsql.Event{SQL: query, Args: args, Source: Name})
	return ctx, nil
}

func (h hooks) After(ctx context.Context, _ string, _ ...interface{}) (context.Context, error) {
	return ctx, nil
}
