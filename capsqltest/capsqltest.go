// Package capsqltest opens capture sessions scoped to a test.
package capsqltest

import (
	"testing"

	"github.com/mickamy/capsql"
)

// Capture enters a session on e and closes it when the test finishes.
// Tests may close it earlier themselves.
func Capture(tb testing.TB, e *capsql.Engine) *capsql.Session {
	tb.Helper()

	s, err := e.Enter()
	if err != nil {
		tb.Fatalf("capsqltest: enter: %v", err)
	}
	tb.Cleanup(func() {
		if !s.Active() {
			return
		}
		if err := s.Close(); err != nil {
			tb.Errorf("capsqltest: close: %v", err)
		}
	})
	return s
}
