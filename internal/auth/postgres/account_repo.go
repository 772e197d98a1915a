// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

// Package postgres implements the auth package's storage-facing interfaces
// on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/nickgate/nickgate/internal/auth"
)

// DB is the subset of pgxpool.Pool the repositories need. pgxmock pools
// satisfy it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByNick retrieves the account owning the given nickname
// (case-insensitive).
func (r *AccountRepository) GetByNick(ctx context.Context, nick string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT a.id, a.display, a.email,
		       (SELECT COUNT(*) FROM nick_aliases n2 WHERE n2.account_id = a.id),
		       a.created_at, a.updated_at
		FROM accounts a
		JOIN nick_aliases n ON n.account_id = a.id
		WHERE LOWER(n.nick) = LOWER($1)
	`, nick)

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("nick", nick).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_NICK_FAILED").
			With("operation", "get account by nick").
			With("nick", nick).
			Wrap(err)
	}
	return acct, nil
}

// Create stores a new account core and its primary nick alias in one
// transaction.
func (r *AccountRepository) Create(ctx context.Context, acct *auth.Account) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "begin transaction").
			Wrap(err)
	}
	defer func() { _ = tx.Rollback(ctx) }() //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, display, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		acct.ID.String(),
		acct.Display,
		acct.Email,
		acct.CreatedAt,
		acct.UpdatedAt,
	)
	if err != nil {
		return createErr(acct.Display, "insert account", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO nick_aliases (nick, account_id, created_at)
		VALUES ($1, $2, $3)
	`,
		acct.Display,
		acct.ID.String(),
		acct.CreatedAt,
	)
	if err != nil {
		return createErr(acct.Display, "insert primary alias", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return createErr(acct.Display, "commit transaction", err)
	}
	return nil
}

// UpdateEmail sets the email attribute on an account core.
func (r *AccountRepository) UpdateEmail(ctx context.Context, id ulid.ULID, email string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE accounts SET email = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), email, time.Now())
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_EMAIL_FAILED").
			With("operation", "update email").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// createErr maps unique violations to ErrAccountExists so the synchronizer
// can resolve create races.
func createErr(display, operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return oops.Code("ACCOUNT_EXISTS").
			With("display", display).
			Wrap(auth.ErrAccountExists)
	}
	return oops.Code("ACCOUNT_CREATE_FAILED").
		With("operation", operation).
		With("display", display).
		Wrap(err)
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr      string
		display    string
		email      string
		aliasCount int
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(&idStr, &display, &email, &aliasCount, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Account{
		ID:         id,
		Display:    display,
		Email:      email,
		AliasCount: aliasCount,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
