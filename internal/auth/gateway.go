// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Gateway is the per-attempt entry point: it binds the configured lookup
// query and dispatches it through the query executor, attaching a fresh
// CredentialVerifier to receive the eventual completion. Authenticate is
// fire-and-forget; the outcome reaches the PendingLogin later.
type Gateway struct {
	executor QueryExecutor
	sessions SessionDirectory
	sync     *Synchronizer
	verifier PasswordVerifier
	query    string
	logger   *slog.Logger
}

// NewGateway creates a Gateway. executor may be nil when no backing-store
// engine is bound; Authenticate then refuses each attempt. All other
// dependencies are required, as is a non-empty query template.
func NewGateway(executor QueryExecutor, sessions SessionDirectory, syncer *Synchronizer, verifier PasswordVerifier, query string, logger *slog.Logger) (*Gateway, error) {
	if sessions == nil {
		return nil, oops.Errorf("session directory is required")
	}
	if syncer == nil {
		return nil, oops.Errorf("synchronizer is required")
	}
	if verifier == nil {
		return nil, oops.Errorf("password verifier is required")
	}
	if query == "" {
		return nil, oops.Code("CONFIG_QUERY_MISSING").Errorf("lookup query template is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gateway{
		executor: executor,
		sessions: sessions,
		sync:     syncer,
		verifier: verifier,
		query:    query,
		logger:   logger,
	}, nil
}

// Authenticate dispatches the credential lookup for one attempt. sessionID
// may be zero when no user session is attached; the nick and address
// placeholders are then bound to empty strings.
//
// With no executor bound the attempt is logged and left untouched: no hold
// is taken and no verifier attached, so the host's own pending-request
// timeout eventually fails it.
func (g *Gateway) Authenticate(ctx context.Context, sessionID ulid.ULID, pending *PendingLogin) {
	if g.executor == nil {
		g.logger.Error("external auth: no query executor bound, cannot check credentials",
			"account", pending.Account(),
		)
		return
	}

	q := NewQuery(g.query)
	q.Bind(ParamAccount, pending.Account())
	q.Bind(ParamPassword, pending.Password())

	nick, addr := "", ""
	if sessionID != (ulid.ULID{}) {
		if info, ok := g.sessions.Lookup(sessionID); ok {
			nick, addr = info.Nick, info.Addr
		}
	}
	q.Bind(ParamNick, nick)
	q.Bind(ParamAddress, addr)

	sink := NewCredentialVerifier(sessionID, pending.Password(), pending, g.sync, g.verifier, g.logger)
	g.executor.Run(ctx, sink, q)

	g.logger.Info("external auth: checking credentials", "account", pending.Account())
}
