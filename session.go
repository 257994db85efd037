package capsql

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"

	"github.com/mickamy/capsql/internal/buffer"
)

// Session is one Enter..Exit lifetime of an Engine. While it is the innermost
// open session it receives every captured statement; after it is closed its
// records are a frozen snapshot.
type Session struct {
	id     string
	engine *Engine
	buf    *buffer.Buffer[Statement]
	active atomic.Bool
}

func newSession(e *Engine) *Session {
	s := &Session{
		id:     uuid.NewString(),
		engine: e,
		buf:    buffer.NewBuffer[Statement](),
	}
	s.active.Store(true)
	return s
}

// ID returns the session identifier attached to log records.
func (s *Session) ID() string {
	return s.id
}

// Active reports whether the session is still open.
func (s *Session) Active() bool {
	return s.active.Load()
}

// Close exits the session. It must be the innermost open session of its engine.
func (s *Session) Close() error {
	return s.engine.exit(s)
}

// Records returns the captured statements in execution order.
func (s *Session) Records() []Statement {
	return s.buf.Snapshot()
}

// Statements returns the display text of each captured statement.
func (s *Session) Statements() []string {
	recs := s.buf.Snapshot()
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Text
	}
	return out
}

// Count returns the number of captured statements.
func (s *Session) Count() int {
	return s.buf.Len()
}

// Last returns the most recently captured statement.
func (s *Session) Last() (Statement, bool) {
	return s.buf.Last()
}

// Text joins the display statements with a blank line.
func (s *Session) Text() string {
	return strings.Join(s.Statements(), "\n\n")
}

// Filter returns the records for which fn reports true.
func (s *Session) Filter(fn func(Statement) bool) []Statement {
	var out []Statement
	for _, r := range s.buf.Snapshot() {
		if fn(r) {
			out = append(out, r)
		}
	}
	return out
}

// Clear discards the captured statements of an open session. Subsequent
// indexes restart at 0. A closed session's records are frozen, so Clear
// returns ErrSessionClosed for it.
func (s *Session) Clear() error {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	if !s.active.Load() {
		return fmt.Errorf("capsql: session %s: %w", s.id, ErrSessionClosed)
	}
	s.buf.Reset()
	return nil
}

func (s *Session) String() string {
	n := s.Count()
	noun := "statement"
	if n != 1 {
		noun = inflection.Plural(noun)
	}
	return fmt.Sprintf("session %s: %d %s", s.id, n, noun)
}
