// Package capsql captures the SQL statements a data source sends to its
// connections while a capture scope is open.
//
// An Engine is bound to one Source (see the sqlhook and pgxtrace packages).
// Enter opens a session, every statement executed until the matching exit is
// recorded in order, and the session can then be inspected:
//
//	capture := capsql.New(src, capsql.WithColor(false))
//	s, err := capture.Enter()
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
// Sessions nest. Statements are recorded by the innermost open session only.
package capsql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mickamy/capsql/internal/query"
)

var (
	// ErrUnsupportedSource is returned by Enter when the source cannot install its hook.
	ErrUnsupportedSource = errors.New("source does not support statement capture")
	// ErrNotCapturing is returned by Exit when no session is open.
	ErrNotCapturing = errors.New("no capture session is open")
	// ErrSessionClosed is returned when a session is closed twice.
	ErrSessionClosed = errors.New("capture session already closed")
	// ErrNotInnermost is returned when closing a session that has open nested sessions.
	ErrNotInnermost = errors.New("capture session is not the innermost open session")
	// ErrEngineClosed is returned by Enter after Close.
	ErrEngineClosed = errors.New("capture engine is closed")
)

// Config holds the behavior flags of an Engine. It is fixed at construction.
type Config struct {
	Echo       bool // write each statement to the error stream
	Log        bool // emit each statement to the structured logger
	ShowParams bool // keep bound values and append them to the display text
	Pretty     bool // reindent statements
	Color      bool // highlight echoed and logged statements (requires Pretty)
}

// DefaultConfig returns the configuration used by New when no options are given.
func DefaultConfig() Config {
	return Config{Pretty: true, Color: true}
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	cfg    Config
	logger *slog.Logger
	stderr io.Writer
}

func WithEcho(v bool) Option       { return func(o *options) { o.cfg.Echo = v } }
func WithLog(v bool) Option        { return func(o *options) { o.cfg.Log = v } }
func WithShowParams(v bool) Option { return func(o *options) { o.cfg.ShowParams = v } }
func WithPretty(v bool) Option     { return func(o *options) { o.cfg.Pretty = v } }
func WithColor(v bool) Option      { return func(o *options) { o.cfg.Color = v } }

// WithConfig replaces every flag at once.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger used when Log is enabled. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithErrorStream sets the writer used when Echo is enabled. Defaults to os.Stderr.
func WithErrorStream(w io.Writer) Option {
	return func(o *options) { o.stderr = w }
}

// Engine captures statements from one Source.
type Engine struct {
	src  Source
	cfg  Config
	sink sink

	mu          sync.Mutex
	installed   bool
	closed      bool
	unsubscribe func()
	stack       []*Session
	last        *Session

	// depth mirrors len(stack) so idle events skip the lock.
	depth atomic.Int32
	stats stats
}

// New creates an Engine bound to src. The source hook is installed lazily by
// the first Enter.
func New(src Source, opts ...Option) *Engine {
	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.stderr == nil {
		o.stderr = os.Stderr
	}
	return &Engine{
		src: src,
		cfg: o.cfg,
		sink: sink{
			echo:   o.cfg.Echo,
			log:    o.cfg.Log,
			pretty: o.cfg.Pretty,
			color:  o.cfg.Color,
			w:      o.stderr,
			logger: o.logger.With(slog.String("component", ComponentName)),
		},
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Enter opens a new session, nested inside any session already open.
func (e *Engine) Enter() (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, fmt.Errorf("capsql: %w", ErrEngineClosed)
	}
	if !e.installed {
		if e.src == nil {
			return nil, fmt.Errorf("capsql: %w: nil source", ErrUnsupportedSource)
		}
		unsubscribe, err := e.src.Subscribe(e)
		if err != nil {
			return nil, fmt.Errorf("capsql: failed to install hook: %w: %w", ErrUnsupportedSource, err)
		}
		e.unsubscribe = unsubscribe
		e.installed = true
	}

	s := newSession(e)
	e.stack = append(e.stack, s)
	e.depth.Store(int32(len(e.stack)))
	e.stats.sessions.Add(1)
	return s, nil
}

// Exit closes the innermost open session.
func (e *Engine) Exit() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.stack) == 0 {
		return fmt.Errorf("capsql: %w", ErrNotCapturing)
	}
	e.popLocked()
	return nil
}

func (e *Engine) exit(s *Session) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !s.active.Load() {
		return fmt.Errorf("capsql: session %s: %w", s.id, ErrSessionClosed)
	}
	if n := len(e.stack); n > 0 && e.stack[n-1] == s {
		e.popLocked()
		return nil
	}
	// Closed out of order: s still stops recording, sessions above it stay open.
	e.removeLocked(s)
	return fmt.Errorf("capsql: session %s: %w", s.id, ErrNotInnermost)
}

func (e *Engine) popLocked() {
	e.removeLocked(e.stack[len(e.stack)-1])
}

func (e *Engine) removeLocked(s *Session) {
	for i, c := range e.stack {
		if c != s {
			continue
		}
		copy(e.stack[i:], e.stack[i+1:])
		e.stack[len(e.stack)-1] = nil
		e.stack = e.stack[:len(e.stack)-1]
		break
	}
	e.depth.Store(int32(len(e.stack)))
	s.active.Store(false)
	e.last = s
}

// Capture runs fn inside a new session and exits it on every path, including
// a panic in fn. The session is returned for inspection. If fn leaves a nested
// session open, the capture session is still closed and ErrNotInnermost is
// returned; the nested session keeps recording until it is closed itself.
func (e *Engine) Capture(fn func(*Session) error) (s *Session, err error) {
	s, err = e.Enter()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return s, fn(s)
}

// Close closes any open sessions and removes the source hook. Later calls are no-ops.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	for len(e.stack) > 0 {
		e.popLocked()
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.installed = false
	e.closed = true
	return nil
}

// Capturing reports whether a session is open.
func (e *Engine) Capturing() bool {
	return e.depth.Load() > 0
}

// Depth returns the number of open sessions.
func (e *Engine) Depth() int {
	return int(e.depth.Load())
}

// Current returns the innermost open session, or the most recently closed
// one when idle. It returns nil before the first Enter.
func (e *Engine) Current() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n := len(e.stack); n > 0 {
		return e.stack[n-1]
	}
	return e.last
}

// Statements returns the display text captured by the current session.
func (e *Engine) Statements() []string {
	if s := e.Current(); s != nil {
		return s.Statements()
	}
	return nil
}

// Count returns the number of statements captured by the current session.
func (e *Engine) Count() int {
	if s := e.Current(); s != nil {
		return s.Count()
	}
	return 0
}

// Last returns the latest statement of the current session.
func (e *Engine) Last() (Statement, bool) {
	if s := e.Current(); s != nil {
		return s.Last()
	}
	return Statement{}, false
}

// Text joins the current session's statements with a blank line.
func (e *Engine) Text() string {
	if s := e.Current(); s != nil {
		return s.Text()
	}
	return ""
}

// Clear discards the statements of the innermost open session. It returns
// ErrNotCapturing when no session is open.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.stack)
	if n == 0 {
		return fmt.Errorf("capsql: %w", ErrNotCapturing)
	}
	e.stack[n-1].buf.Reset()
	return nil
}

// HandleStatement implements Listener. It records ev in the innermost open
// session and forwards it to the echo and log channels.
func (e *Engine) HandleStatement(ctx context.Context, ev Event) {
	if e.depth.Load() == 0 || extractSkip(ctx) {
		return
	}

	kind := query.Classify(ev.SQL)
	text := render(ev.SQL, ev.Args, e.cfg.Pretty, e.cfg.ShowParams)
	var args []any
	if e.cfg.ShowParams && len(ev.Args) > 0 {
		args = make([]any, len(ev.Args))
		copy(args, ev.Args)
	}
	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}

	e.mu.Lock()
	if len(e.stack) == 0 {
		e.mu.Unlock()
		return
	}
	s := e.stack[len(e.stack)-1]
	st := s.buf.Add(func(idx int) Statement {
		return Statement{
			Index:  idx,
			SQL:    ev.SQL,
			Args:   args,
			Text:   text,
			Time:   at,
			Op:     kind.Op,
			Table:  kind.Table,
			Label:  extractLabel(ctx),
			Source: ev.Source,
		}
	})
	e.mu.Unlock()

	e.stats.record(st.Op)
	e.sink.emit(ctx, s.id, st)
}
