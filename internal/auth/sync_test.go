// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickgate/nickgate/internal/auth"
	"github.com/nickgate/nickgate/pkg/errutil"
)

func TestNewSynchronizer_NilDependencies(t *testing.T) {
	tests := []struct {
		name        string
		accounts    auth.AccountRepository
		sessions    auth.SessionDirectory
		expectError string
	}{
		{
			name:        "nil account repository",
			accounts:    nil,
			sessions:    newFakeDirectory(),
			expectError: "account repository is required",
		},
		{
			name:        "nil session directory",
			accounts:    newFakeAccountRepo(),
			sessions:    nil,
			expectError: "session directory is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := auth.NewSynchronizer(tt.accounts, tt.sessions)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestSynchronizerSync(t *testing.T) {
	ctx := context.Background()

	t.Run("first login materializes an account", func(t *testing.T) {
		repo := newFakeAccountRepo()
		dir := newFakeDirectory()
		s, err := auth.NewSynchronizer(repo, dir)
		require.NoError(t, err)

		sessionID := dir.connect("alice", "203.0.113.9")
		acct, err := s.Sync(ctx, "alice", sessionID, "")
		require.NoError(t, err)

		assert.Equal(t, "alice", acct.Display)
		assert.Equal(t, 1, acct.AliasCount)
		assert.NotEqual(t, ulid.ULID{}, acct.ID)
		assert.Equal(t, 1, repo.creates)
		assert.Equal(t, []string{"Your account alice has been confirmed."}, dir.noticesFor(sessionID))
	})

	t.Run("second login is idempotent", func(t *testing.T) {
		repo := newFakeAccountRepo()
		dir := newFakeDirectory()
		s, err := auth.NewSynchronizer(repo, dir)
		require.NoError(t, err)

		first, err := s.Sync(ctx, "alice", ulid.ULID{}, "")
		require.NoError(t, err)
		second, err := s.Sync(ctx, "alice", ulid.ULID{}, "")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, repo.creates)
	})

	t.Run("changed email is written through", func(t *testing.T) {
		repo := newFakeAccountRepo()
		dir := newFakeDirectory()
		repo.seed("alice", "old@example.org")
		s, err := auth.NewSynchronizer(repo, dir)
		require.NoError(t, err)

		sessionID := dir.connect("alice", "203.0.113.9")
		acct, err := s.Sync(ctx, "alice", sessionID, "new@example.org")
		require.NoError(t, err)

		assert.Equal(t, "new@example.org", acct.Email)
		assert.Equal(t, []string{"new@example.org"}, repo.emailUpdates)
		assert.Equal(t, []string{"E-mail set to new@example.org."}, dir.noticesFor(sessionID))
	})

	t.Run("matching email is not rewritten", func(t *testing.T) {
		repo := newFakeAccountRepo()
		repo.seed("alice", "same@example.org")
		s, err := auth.NewSynchronizer(repo, newFakeDirectory())
		require.NoError(t, err)

		_, err = s.Sync(ctx, "alice", ulid.ULID{}, "same@example.org")
		require.NoError(t, err)
		assert.Empty(t, repo.emailUpdates)
	})

	t.Run("empty external email leaves the account alone", func(t *testing.T) {
		repo := newFakeAccountRepo()
		repo.seed("alice", "keep@example.org")
		s, err := auth.NewSynchronizer(repo, newFakeDirectory())
		require.NoError(t, err)

		acct, err := s.Sync(ctx, "alice", ulid.ULID{}, "")
		require.NoError(t, err)
		assert.Equal(t, "keep@example.org", acct.Email)
		assert.Empty(t, repo.emailUpdates)
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		repo := newFakeAccountRepo()
		seeded := repo.seed("Alice", "")
		s, err := auth.NewSynchronizer(repo, newFakeDirectory())
		require.NoError(t, err)

		acct, err := s.Sync(ctx, "alice", ulid.ULID{}, "")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, acct.ID)
		assert.Equal(t, 0, repo.creates)
	})

	t.Run("create race falls back to the winner", func(t *testing.T) {
		repo := newFakeAccountRepo()
		winner := repo.seed("alice", "")
		// First lookup misses, create conflicts with the seeded record,
		// the refetch returns the winner.
		repo.getMisses = 1
		s, err := auth.NewSynchronizer(repo, newFakeDirectory())
		require.NoError(t, err)

		acct, err := s.Sync(ctx, "alice", ulid.ULID{}, "")
		require.NoError(t, err)
		assert.Equal(t, winner.ID, acct.ID)
		assert.Equal(t, 0, repo.creates)
	})

	t.Run("store failure surfaces as sync error", func(t *testing.T) {
		repo := newFakeAccountRepo()
		repo.getErr = errors.New("connection reset")
		s, err := auth.NewSynchronizer(repo, newFakeDirectory())
		require.NoError(t, err)

		acct, err := s.Sync(ctx, "alice", ulid.ULID{}, "")
		require.Error(t, err)
		assert.Nil(t, acct)
		errutil.AssertErrorCode(t, err, "ACCOUNT_SYNC_FAILED")
		errutil.AssertErrorContext(t, err, "account", "alice")
	})

	t.Run("create failure surfaces as create error", func(t *testing.T) {
		repo := newFakeAccountRepo()
		repo.createErr = errors.New("disk full")
		s, err := auth.NewSynchronizer(repo, newFakeDirectory())
		require.NoError(t, err)

		_, err = s.Sync(ctx, "alice", ulid.ULID{}, "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_CREATE_FAILED")
	})

	t.Run("notices skipped for vanished session", func(t *testing.T) {
		repo := newFakeAccountRepo()
		dir := newFakeDirectory()
		s, err := auth.NewSynchronizer(repo, dir)
		require.NoError(t, err)

		gone := ulid.Make()
		_, err = s.Sync(ctx, "alice", gone, "mail@example.org")
		require.NoError(t, err)
		assert.Empty(t, dir.noticesFor(gone))
	})
}

func TestSynchronizerObservers(t *testing.T) {
	repo := newFakeAccountRepo()
	s, err := auth.NewSynchronizer(repo, newFakeDirectory())
	require.NoError(t, err)

	var seen []string
	s.AddObserver(observerFunc(func(acct *auth.Account) {
		seen = append(seen, acct.Display)
	}))
	s.AddObserver(nil)

	_, err = s.Sync(context.Background(), "alice", ulid.ULID{}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, seen)

	// Registration fires once; later logins stay quiet.
	_, err = s.Sync(context.Background(), "alice", ulid.ULID{}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, seen)
}

// observerFunc adapts a func to auth.RegistrationObserver.
type observerFunc func(*auth.Account)

func (f observerFunc) OnAccountRegistered(acct *auth.Account) { f(acct) }
