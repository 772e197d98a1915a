// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package postgres

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/nickgate/nickgate/internal/auth"
)

// Executor implements auth.QueryExecutor on PostgreSQL. Each Run dispatches
// the bound query on its own goroutine and delivers the completion to the
// sink exactly once. Named placeholders (@a, @p, ...) are bound through
// pgx named arguments, never interpolated.
type Executor struct {
	db     DB
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewExecutor creates an Executor. A nil logger discards.
func NewExecutor(db DB, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{db: db, logger: logger}
}

// Run executes q asynchronously. The sink receives OnResult with the
// collected rows or OnError with the execution error; never both.
func (e *Executor) Run(ctx context.Context, sink auth.ResultSink, q auth.Query) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		rows, err := e.collect(ctx, q)
		if err != nil {
			sink.OnError(ctx, oops.Code("AUTH_QUERY_FAILED").
				With("query", q.SQL).
				Wrap(err))
			return
		}
		sink.OnResult(ctx, auth.Result{Rows: rows, Query: q})
	}()
}

// Wait blocks until all in-flight queries have delivered their completion.
// Used during shutdown so no callback fires into torn-down state.
func (e *Executor) Wait() {
	e.wg.Wait()
}

// collect runs the query and materializes the result set as name-keyed
// rows.
func (e *Executor) collect(ctx context.Context, q auth.Query) ([]auth.Row, error) {
	rows, err := e.db.Query(ctx, q.SQL, pgx.NamedArgs(q.Args))
	if err != nil {
		return nil, oops.With("operation", "execute lookup query").Wrap(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var collected []auth.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, oops.With("operation", "read row values").Wrap(err)
		}
		row := make(auth.Row, len(fields))
		for i, fd := range fields {
			if i < len(values) {
				row[fd.Name] = values[i]
			}
		}
		collected = append(collected, row)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate result rows").Wrap(err)
	}
	return collected, nil
}

// Compile-time interface check.
var _ auth.QueryExecutor = (*Executor)(nil)
