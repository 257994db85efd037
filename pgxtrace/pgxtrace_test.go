package pgxtrace_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/capsql"
	"github.com/mickamy/capsql/pgxtrace"
)

type ctxKey struct{}

type recorder struct {
	calls []string
}

func (r *recorder) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	r.calls = append(r.calls, "query start: "+data.SQL)
	return context.WithValue(ctx, ctxKey{}, "next")
}

func (r *recorder) TraceQueryEnd(_ context.Context, _ *pgx.Conn, _ pgx.TraceQueryEndData) {
	r.calls = append(r.calls, "query end")
}

func (r *recorder) TraceBatchStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceBatchStartData) context.Context {
	r.calls = append(r.calls, "batch start")
	return ctx
}

func (r *recorder) TraceBatchQuery(_ context.Context, _ *pgx.Conn, data pgx.TraceBatchQueryData) {
	r.calls = append(r.calls, "batch query: "+data.SQL)
}

func (r *recorder) TraceBatchEnd(_ context.Context, _ *pgx.Conn, _ pgx.TraceBatchEndData) {
	r.calls = append(r.calls, "batch end")
}

func TestTracer_Capture(t *testing.T) {
	t.Parallel()

	tracer := pgxtrace.New(nil)
	e := capsql.New(tracer, capsql.WithPretty(true), capsql.WithColor(false), capsql.WithShowParams(true))
	ctx := context.Background()

	s, err := e.Capture(func(*capsql.Session) error {
		got := tracer.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{
			SQL:  "select id from users where id = $1",
			Args: []any{int64(7)},
		})
		require.Equal(t, ctx, got)
		tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

		ctx = tracer.TraceBatchStart(ctx, nil, pgx.TraceBatchStartData{})
		tracer.TraceBatchQuery(ctx, nil, pgx.TraceBatchQueryData{SQL: "delete from sessions"})
		tracer.TraceBatchEnd(ctx, nil, pgx.TraceBatchEndData{})
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, []string{
		"SELECT id\nFROM users\nWHERE id = $1\n-- params: (7)",
		"DELETE FROM sessions\n-- params: ()",
	}, s.Statements())
	for _, r := range s.Records() {
		require.Equal(t, pgxtrace.Name, r.Source)
	}
}

func TestTracer_Chaining(t *testing.T) {
	t.Parallel()

	next := &recorder{}
	tracer := pgxtrace.New(next)
	ctx := context.Background()

	ctx = tracer.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	require.Equal(t, "next", ctx.Value(ctxKey{}))
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})
	ctx = tracer.TraceBatchStart(ctx, nil, pgx.TraceBatchStartData{})
	tracer.TraceBatchQuery(ctx, nil, pgx.TraceBatchQueryData{SQL: "SELECT 2"})
	tracer.TraceBatchEnd(ctx, nil, pgx.TraceBatchEndData{})

	require.Equal(t, []string{
		"query start: SELECT 1",
		"query end",
		"batch start",
		"batch query: SELECT 2",
		"batch end",
	}, next.calls)
}

func TestTracer_Idle(t *testing.T) {
	t.Parallel()

	tracer := pgxtrace.New(nil)
	e := capsql.New(tracer)

	tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	require.False(t, tracer.Listening())

	s, err := e.Enter()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 2"})
	require.Zero(t, s.Count())
}
