package capsql

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// ComponentName tags every log record emitted by capsql.
const ComponentName = "capsql"

// sink delivers display text to the optional echo and log channels.
// Failures on either channel are swallowed; they never affect capture.
type sink struct {
	echo   bool
	log    bool
	pretty bool
	color  bool
	w      io.Writer
	logger *slog.Logger
}

func (s sink) enabled() bool {
	return s.echo || s.log
}

func (s sink) emit(ctx context.Context, session string, st Statement) {
	if !s.enabled() {
		return
	}
	msg := st.Text
	if s.color && s.pretty {
		msg = colorize(msg)
	}
	if s.echo {
		s.writeEcho(msg)
	}
	if s.log {
		s.writeLog(ctx, session, st, msg)
	}
}

func (s sink) writeEcho(msg string) {
	defer func() { _ = recover() }()
	if s.w == nil {
		return
	}
	_, _ = io.WriteString(s.w, msg+"\n")
}

func (s sink) writeLog(ctx context.Context, session string, st Statement, msg string) {
	defer func() { _ = recover() }()
	if s.logger == nil {
		return
	}
	if s.pretty {
		// Multi-line statements read better starting on their own line.
		msg = "\n" + indent(msg, "    ")
	}
	attrs := []slog.Attr{
		slog.String("session", session),
		slog.Int("index", st.Index),
		slog.String("op", st.Op),
	}
	if st.Table != "" {
		attrs = append(attrs, slog.String("table", st.Table))
	}
	if st.Source != "" {
		attrs = append(attrs, slog.String("source", st.Source))
	}
	if st.Label != "" {
		attrs = append(attrs, slog.String("label", st.Label))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// indent prefixes every non-blank line of text.
func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
