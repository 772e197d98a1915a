// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Synchronizer reconciles a successfully verified external credential with
// the local account store. The first successful login for an unknown
// account name materializes an account core plus its primary nick alias;
// later logins only refresh the email attribute when the external value
// changed. Sync is idempotent.
type Synchronizer struct {
	accounts  AccountRepository
	sessions  SessionDirectory
	observers []RegistrationObserver
	logger    *slog.Logger
}

// NewSynchronizer creates a Synchronizer with a no-op logger.
// Returns an error if any required dependency is nil.
func NewSynchronizer(accounts AccountRepository, sessions SessionDirectory) (*Synchronizer, error) {
	return NewSynchronizerWithLogger(accounts, sessions, slog.New(slog.DiscardHandler))
}

// NewSynchronizerWithLogger creates a Synchronizer with the provided logger.
// Returns an error if any required dependency is nil.
func NewSynchronizerWithLogger(accounts AccountRepository, sessions SessionDirectory, logger *slog.Logger) (*Synchronizer, error) {
	if accounts == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session directory is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Synchronizer{
		accounts: accounts,
		sessions: sessions,
		logger:   logger,
	}, nil
}

// AddObserver registers an observer for account registrations.
func (s *Synchronizer) AddObserver(o RegistrationObserver) {
	if o != nil {
		s.observers = append(s.observers, o)
	}
}

// Sync ensures a local account exists for accountName and carries the
// external email. sessionID may be zero (login before any session) or refer
// to a session that has since disconnected; notices are then skipped.
func (s *Synchronizer) Sync(ctx context.Context, accountName string, sessionID ulid.ULID, email string) (*Account, error) {
	acct, err := s.accounts.GetByNick(ctx, accountName)
	switch {
	case err == nil:
		// Existing account, fall through to the email check.
	case errors.Is(err, ErrNotFound):
		acct, err = s.register(ctx, accountName, sessionID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, oops.Code("ACCOUNT_SYNC_FAILED").
			With("operation", "get account by nick").
			With("account", accountName).
			Wrap(err)
	}

	if email != "" && email != acct.Email {
		if err := s.accounts.UpdateEmail(ctx, acct.ID, email); err != nil {
			return nil, oops.Code("ACCOUNT_SYNC_FAILED").
				With("operation", "update email").
				With("account", accountName).
				Wrap(err)
		}
		acct.Email = email
		acct.UpdatedAt = time.Now()
		s.logger.Info("account email updated", "account", accountName)
		s.notify(sessionID, fmt.Sprintf("E-mail set to %s.", email))
	}

	return acct, nil
}

// register creates the account core and primary alias for a first login.
func (s *Synchronizer) register(ctx context.Context, accountName string, sessionID ulid.ULID) (*Account, error) {
	now := time.Now()
	acct := &Account{
		ID:         ulid.Make(),
		Display:    accountName,
		AliasCount: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.accounts.Create(ctx, acct)
	if errors.Is(err, ErrAccountExists) {
		// Lost a race with a concurrent first login; the winner's record is
		// the account.
		existing, getErr := s.accounts.GetByNick(ctx, accountName)
		if getErr != nil {
			return nil, oops.Code("ACCOUNT_SYNC_FAILED").
				With("operation", "refetch after create conflict").
				With("account", accountName).
				Wrap(getErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "create account").
			With("account", accountName).
			Wrap(err)
	}

	AccountsRegistered.Inc()
	s.logger.Info("account registered from external login", "account", accountName)

	for _, o := range s.observers {
		o.OnAccountRegistered(acct)
	}
	s.notify(sessionID, fmt.Sprintf("Your account %s has been confirmed.", accountName))

	return acct, nil
}

// notify sends a notice to the session if one is still attached.
func (s *Synchronizer) notify(sessionID ulid.ULID, message string) {
	if sessionID == (ulid.ULID{}) {
		return
	}
	if _, ok := s.sessions.Lookup(sessionID); !ok {
		return
	}
	s.sessions.Notify(sessionID, message)
}
