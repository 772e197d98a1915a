// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package session_test

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickgate/nickgate/internal/session"
)

func TestRegistryConnectLookup(t *testing.T) {
	r := session.NewRegistry()

	id := r.Connect("alice", "203.0.113.9")
	require.NotEqual(t, ulid.ULID{}, id)

	info, ok := r.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "alice", info.Nick)
	assert.Equal(t, "203.0.113.9", info.Addr)
	assert.Equal(t, 1, r.Count())
}

func TestRegistryDisconnect(t *testing.T) {
	r := session.NewRegistry()
	id := r.Connect("alice", "203.0.113.9")

	r.Disconnect(id)
	_, ok := r.Lookup(id)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Count())

	// Unknown IDs are a no-op.
	r.Disconnect(ulid.Make())
}

func TestRegistryNotices(t *testing.T) {
	r := session.NewRegistry()
	id := r.Connect("alice", "203.0.113.9")

	t.Run("queued notices drain in order", func(t *testing.T) {
		r.Notify(id, "first")
		r.Notify(id, "second")

		assert.Equal(t, []string{"first", "second"}, r.DrainNotices(id))
		assert.Nil(t, r.DrainNotices(id), "drained queue is empty")
	})

	t.Run("notices for vanished sessions are dropped", func(t *testing.T) {
		gone := ulid.Make()
		r.Notify(gone, "lost")
		assert.Nil(t, r.DrainNotices(gone))
	})

	t.Run("disconnect discards pending notices", func(t *testing.T) {
		r.Notify(id, "pending")
		r.Disconnect(id)
		assert.Nil(t, r.DrainNotices(id))
	})
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := session.NewRegistry()

	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			id := r.Connect("nick", "addr")
			r.Notify(id, "hello")
			_, _ = r.Lookup(id)
			_ = r.DrainNotices(id)
			r.Disconnect(id)
		}()
	}
	for range 8 {
		<-done
	}
	assert.Equal(t, 0, r.Count())
}
