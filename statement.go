package capsql

import "time"

// Statement is one captured execution. It is immutable once recorded.
type Statement struct {
	Index  int       // position within the session, 0-based
	SQL    string    // exact text handed to the driver
	Args   []any     // bound values; nil unless ShowParams is enabled
	Text   string    // display form (pretty-printed and params applied, never colorized)
	Time   time.Time // capture time
	Op     string    // SELECT, INSERT, UPDATE, DELETE or OTHER
	Table  string    // target table when recognized
	Label  string    // label attached with WithLabel
	Source string    // binding that reported the statement
}

func (s Statement) String() string {
	return s.Text
}
