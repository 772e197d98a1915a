// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickgate/nickgate/internal/auth"
	"github.com/nickgate/nickgate/pkg/errutil"
)

const testQuery = "SELECT password, email FROM users WHERE username = @a"

func newTestGateway(t *testing.T, executor auth.QueryExecutor, dir *fakeDirectory) *auth.Gateway {
	t.Helper()
	syncer, err := auth.NewSynchronizer(newFakeAccountRepo(), dir)
	require.NoError(t, err)
	g, err := auth.NewGateway(executor, dir, syncer, staticVerifier{match: true}, testQuery, nil)
	require.NoError(t, err)
	return g
}

func TestNewGateway_Validation(t *testing.T) {
	dir := newFakeDirectory()
	syncer, err := auth.NewSynchronizer(newFakeAccountRepo(), dir)
	require.NoError(t, err)

	t.Run("nil executor is allowed", func(t *testing.T) {
		g, err := auth.NewGateway(nil, dir, syncer, staticVerifier{}, testQuery, nil)
		require.NoError(t, err)
		assert.NotNil(t, g)
	})

	t.Run("nil session directory rejected", func(t *testing.T) {
		_, err := auth.NewGateway(&captureExecutor{}, nil, syncer, staticVerifier{}, testQuery, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session directory is required")
	})

	t.Run("nil synchronizer rejected", func(t *testing.T) {
		_, err := auth.NewGateway(&captureExecutor{}, dir, nil, staticVerifier{}, testQuery, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "synchronizer is required")
	})

	t.Run("nil verifier rejected", func(t *testing.T) {
		_, err := auth.NewGateway(&captureExecutor{}, dir, syncer, nil, testQuery, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "password verifier is required")
	})

	t.Run("empty query rejected", func(t *testing.T) {
		_, err := auth.NewGateway(&captureExecutor{}, dir, syncer, staticVerifier{}, "", nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_QUERY_MISSING")
	})
}

func TestGatewayAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("binds all four placeholders from a live session", func(t *testing.T) {
		executor := &captureExecutor{}
		dir := newFakeDirectory()
		g := newTestGateway(t, executor, dir)

		sessionID := dir.connect("alice", "203.0.113.9")
		pending := auth.NewPendingLogin("alice", "hunter2", nil)
		g.Authenticate(ctx, sessionID, pending)

		require.Equal(t, 1, executor.runs)
		assert.Equal(t, testQuery, executor.q.SQL)
		assert.Equal(t, "alice", executor.q.Args[auth.ParamAccount])
		assert.Equal(t, "hunter2", executor.q.Args[auth.ParamPassword])
		assert.Equal(t, "alice", executor.q.Args[auth.ParamNick])
		assert.Equal(t, "203.0.113.9", executor.q.Args[auth.ParamAddress])
	})

	t.Run("zero session binds empty nick and address", func(t *testing.T) {
		executor := &captureExecutor{}
		g := newTestGateway(t, executor, newFakeDirectory())

		pending := auth.NewPendingLogin("alice", "hunter2", nil)
		g.Authenticate(ctx, ulid.ULID{}, pending)

		require.Equal(t, 1, executor.runs)
		assert.Equal(t, "", executor.q.Args[auth.ParamNick])
		assert.Equal(t, "", executor.q.Args[auth.ParamAddress])
	})

	t.Run("vanished session binds empty nick and address", func(t *testing.T) {
		executor := &captureExecutor{}
		g := newTestGateway(t, executor, newFakeDirectory())

		pending := auth.NewPendingLogin("alice", "hunter2", nil)
		g.Authenticate(ctx, ulid.Make(), pending)

		require.Equal(t, 1, executor.runs)
		assert.Equal(t, "", executor.q.Args[auth.ParamNick])
		assert.Equal(t, "", executor.q.Args[auth.ParamAddress])
	})

	t.Run("attaches a verifier hold before dispatch", func(t *testing.T) {
		executor := &captureExecutor{}
		g := newTestGateway(t, executor, newFakeDirectory())

		handler := &recordingHandler{}
		pending := auth.NewPendingLogin("alice", "hunter2", handler)
		host := new(int)
		pending.Hold(host)

		g.Authenticate(ctx, ulid.ULID{}, pending)
		pending.Release(host)
		assert.False(t, pending.Completed(), "dispatched attempt stays open")

		executor.sink.OnResult(ctx, auth.Result{Rows: []auth.Row{
			row("password", "$2a$10$hash"),
		}})
		assert.True(t, pending.Succeeded())
	})

	t.Run("nil executor refuses without holding", func(t *testing.T) {
		g := newTestGateway(t, nil, newFakeDirectory())

		handler := &recordingHandler{}
		pending := auth.NewPendingLogin("alice", "hunter2", handler)
		host := new(int)
		pending.Hold(host)

		g.Authenticate(ctx, ulid.ULID{}, pending)
		assert.False(t, pending.Completed(), "attempt untouched, host timeout governs")

		pending.Release(host)
		assert.True(t, pending.Completed())
		assert.Equal(t, []string{"alice"}, handler.failures)
	})
}
