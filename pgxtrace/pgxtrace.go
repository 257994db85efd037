// Package pgxtrace binds capsql to pgx through its tracer hooks.
//
// Install the Tracer on the connection config before connecting:
//
//	tracer := pgxtrace.New(cfg.ConnConfig.Tracer)
//	cfg.ConnConfig.Tracer = tracer
//	pool, err := pgxpool.NewWithConfig(ctx, cfg)
//	capture := capsql.New(tracer)
//
// Single queries are published from TraceQueryStart, before pgx sends them.
// Batched queries are published from TraceBatchQuery, which pgx calls as each
// result of the batch is read.
package pgxtrace

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mickamy/capsql"
)

// Name is reported as Statement.Source.
const Name = "pgxtrace"

// Tracer publishes pgx statements and forwards every callback to an optional
// wrapped tracer.
type Tracer struct {
	capsql.Hub
	next pgx.QueryTracer
}

var (
	_ capsql.Source   = (*Tracer)(nil)
	_ pgx.QueryTracer = (*Tracer)(nil)
	_ pgx.BatchTracer = (*Tracer)(nil)
)

// New returns a Tracer chained in front of next, which may be nil.
func New(next pgx.QueryTracer) *Tracer {
	return &Tracer{next: next}
}

func (t *Tracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	t.Publish(ctx, capsql.Event{SQL: data.SQL, Args: data.Args, Source: Name})
	if t.next != nil {
		return t.next.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (t *Tracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	if t.next != nil {
		t.next.TraceQueryEnd(ctx, conn, data)
	}
}

func (t *Tracer) TraceBatchStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceBatchStartData) context.Context {
	if bt, ok := t.next.(pgx.BatchTracer); ok {
		return bt.TraceBatchStart(ctx, conn, data)
	}
	return ctx
}

func (t *Tracer) TraceBatchQuery(ctx context.Context, conn *pgx.Conn, data pgx.TraceBatchQueryData) {
	t.Publish(ctx, capsql.Event{SQL: data.SQL, Args: data.Args, Source: Name})
	if bt, ok := t.next.(pgx.BatchTracer); ok {
		bt.TraceBatchQuery(ctx, conn, data)
	}
}

func (t *Tracer) TraceBatchEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceBatchEndData) {
	if bt, ok := t.next.(pgx.BatchTracer); ok {
		bt.TraceBatchEnd(ctx, conn, data)
	}
}
