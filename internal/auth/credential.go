// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nickgate/nickgate/pkg/errutil"
)

// CredentialVerifier is the completion sink for one asynchronous credential
// lookup. It owns the decision logic from "rows received" to "outcome
// reported": hash normalization, password verification, account sync, and
// the exactly-once notification of the PendingLogin.
//
// A verifier takes a hold on the PendingLogin at construction and drops it
// on every terminal path, so the attempt can neither be finalized early by
// the host nor completed twice here. The query executor invokes exactly one
// of OnResult/OnError; a second invocation is ignored.
type CredentialVerifier struct {
	sessionID ulid.ULID
	password  string
	pending   *PendingLogin
	sync      *Synchronizer
	verifier  PasswordVerifier
	logger    *slog.Logger
	started   time.Time
	consumed  atomic.Bool
}

// NewCredentialVerifier creates the sink for one lookup and takes a hold on
// pending. sessionID may be zero when the login precedes any user session.
func NewCredentialVerifier(sessionID ulid.ULID, password string, pending *PendingLogin, syncer *Synchronizer, verifier PasswordVerifier, logger *slog.Logger) *CredentialVerifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	v := &CredentialVerifier{
		sessionID: sessionID,
		password:  password,
		pending:   pending,
		sync:      syncer,
		verifier:  verifier,
		logger:    logger,
		started:   time.Now(),
	}
	pending.Hold(v)
	return v
}

// OnResult handles a completed lookup with zero or more rows.
func (v *CredentialVerifier) OnResult(ctx context.Context, result Result) {
	if !v.consume() {
		return
	}
	account := v.pending.Account()

	if len(result.Rows) == 0 {
		v.logger.Info("external auth: account not found", "account", account)
		v.finish(OutcomeNotFound)
		return
	}

	row := result.Rows[0]
	hash := row.Field("password")
	email := row.Field("email")
	if hash == "" {
		// Indistinguishable from a wrong password downstream; leave a trace
		// for operators diagnosing a schema mismatch.
		v.logger.Debug("external auth: password column absent or empty", "account", account)
	}

	normalized := NormalizeHash(hash)

	match, err := v.verifier.Verify(v.password, normalized)
	if err != nil {
		errutil.LogError(v.logger, "external auth: stored hash unusable", err)
		v.finish(OutcomeHashMalformed)
		return
	}
	if !match {
		v.logger.Info("external auth: password mismatch", "account", account)
		v.finish(OutcomeMismatch)
		return
	}

	if _, err := v.sync.Sync(ctx, account, v.sessionID, email); err != nil {
		// The credential checked out but the local identity could not be
		// materialized; the attempt fails and the host may retry fresh.
		errutil.LogError(v.logger, "external auth: account sync failed", err)
		v.finish(OutcomeQueryError)
		return
	}

	v.logger.Info("external auth: authenticated", "account", account)
	v.finish(OutcomeSuccess)
}

// OnError handles a failed query execution.
func (v *CredentialVerifier) OnError(_ context.Context, err error) {
	if !v.consume() {
		return
	}
	errutil.LogError(v.logger, "external auth: lookup query failed", err)
	v.finish(OutcomeQueryError)
}

// consume claims the single terminal transition.
func (v *CredentialVerifier) consume() bool {
	return v.consumed.CompareAndSwap(false, true)
}

// finish records the outcome and releases the hold exactly once. Success
// reports through Succeed, which implies the release; every other outcome
// releases without success.
func (v *CredentialVerifier) finish(outcome Outcome) {
	recordOutcome(outcome, v.started)
	if outcome == OutcomeSuccess {
		v.pending.Succeed(v)
		return
	}
	v.pending.Release(v)
}

// Compile-time interface check.
var _ ResultSink = (*CredentialVerifier)(nil)
