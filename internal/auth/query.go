// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

import "context"

// Placeholder names bindable in the configured lookup query.
const (
	ParamAccount  = "a"
	ParamPassword = "p"
	ParamNick     = "n"
	ParamAddress  = "i"
)

// Query is a parameterized lookup. SQL holds the configured template with
// named placeholders (@a, @p, @n, @i); Args holds the bound values. Values
// only ever travel through the executor's parameter binding, never string
// interpolation.
type Query struct {
	SQL  string
	Args map[string]any
}

// NewQuery creates a Query for the given template.
func NewQuery(sql string) Query {
	return Query{SQL: sql, Args: make(map[string]any)}
}

// Bind sets a named parameter value.
func (q Query) Bind(name string, value any) {
	q.Args[name] = value
}

// Row is one row of external lookup data keyed by column name.
type Row map[string]any

// Field returns the named column as a string. A missing column or a value
// of any other type degrades to "" rather than an error; the caller's
// comparison then fails naturally.
func (r Row) Field(name string) string {
	v, ok := r[name]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// Result is the outcome of a successful query execution: zero or more rows,
// consumed once, read-only.
type Result struct {
	Rows  []Row
	Query Query
}

// ResultSink receives the completion of an asynchronous query. The executor
// invokes exactly one of the two methods, exactly once, not necessarily on
// the dispatching goroutine. The context is the one the query ran under.
type ResultSink interface {
	OnResult(ctx context.Context, result Result)
	OnError(ctx context.Context, err error)
}

// QueryExecutor runs a bound query asynchronously and delivers the
// completion to sink. Run returns without blocking on the query.
type QueryExecutor interface {
	Run(ctx context.Context, sink ResultSink, q Query)
}
