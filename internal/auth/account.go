// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Account is the durable local account record (the account core). Display
// is the primary nickname; an account always has at least the primary alias
// bound to it.
type Account struct {
	ID         ulid.ULID
	Display    string
	Email      string
	AliasCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NickAlias binds a nickname to an account core.
type NickAlias struct {
	Nick      string
	AccountID ulid.ULID
	CreatedAt time.Time
}

// IsPrimary reports whether the alias is the account's primary nickname.
func (n NickAlias) IsPrimary(acct *Account) bool {
	return acct != nil && n.Nick == acct.Display
}

// AccountRepository manages local account persistence.
type AccountRepository interface {
	// GetByNick retrieves the account owning the given nickname
	// (case-insensitive). Returns ErrNotFound if no such alias exists.
	GetByNick(ctx context.Context, nick string) (*Account, error)

	// Create stores a new account core together with its primary nick
	// alias. Returns ErrAccountExists if the nickname is already taken.
	Create(ctx context.Context, acct *Account) error

	// UpdateEmail sets the email attribute on an account core.
	UpdateEmail(ctx context.Context, id ulid.ULID, email string) error
}

// SessionInfo is the point-in-time view of a live user connection.
type SessionInfo struct {
	Nick string
	Addr string
}

// SessionDirectory resolves live user sessions at the moment of use. A
// session ID whose connection has since vanished simply fails the lookup;
// callers treat that as the no-session case.
type SessionDirectory interface {
	// Lookup returns the session's current info, or false if it is gone.
	Lookup(id ulid.ULID) (SessionInfo, bool)

	// Notify queues a user-facing notice for the session. Unknown IDs are
	// dropped silently.
	Notify(id ulid.ULID, message string)
}

// RegistrationObserver is told when a first successful external login
// materializes a local account. An extension point for the host.
type RegistrationObserver interface {
	OnAccountRegistered(acct *Account)
}
