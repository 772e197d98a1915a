// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth_test

import (
	"context"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/nickgate/nickgate/internal/auth"
)

// fakeAccountRepo is an in-memory auth.AccountRepository with injectable
// failures.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*auth.Account

	getErr    error
	getMisses int
	createErr error
	updateErr error

	creates      int
	emailUpdates []string
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*auth.Account)}
}

func (r *fakeAccountRepo) GetByNick(_ context.Context, nick string) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.getMisses > 0 {
		r.getMisses--
		return nil, auth.ErrNotFound
	}
	acct, ok := r.accounts[strings.ToLower(nick)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *acct
	return &clone, nil
}

func (r *fakeAccountRepo) Create(_ context.Context, acct *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	key := strings.ToLower(acct.Display)
	if _, ok := r.accounts[key]; ok {
		return auth.ErrAccountExists
	}
	clone := *acct
	r.accounts[key] = &clone
	r.creates++
	return nil
}

func (r *fakeAccountRepo) UpdateEmail(_ context.Context, id ulid.ULID, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	for _, acct := range r.accounts {
		if acct.ID == id {
			acct.Email = email
			r.emailUpdates = append(r.emailUpdates, email)
			return nil
		}
	}
	return auth.ErrNotFound
}

// seed inserts an existing account and returns it.
func (r *fakeAccountRepo) seed(display, email string) *auth.Account {
	acct := &auth.Account{
		ID:         ulid.Make(),
		Display:    display,
		Email:      email,
		AliasCount: 1,
	}
	r.mu.Lock()
	r.accounts[strings.ToLower(display)] = acct
	r.mu.Unlock()
	return acct
}

// fakeDirectory is an in-memory auth.SessionDirectory recording notices.
type fakeDirectory struct {
	mu       sync.Mutex
	sessions map[ulid.ULID]auth.SessionInfo
	notices  map[ulid.ULID][]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		sessions: make(map[ulid.ULID]auth.SessionInfo),
		notices:  make(map[ulid.ULID][]string),
	}
}

func (d *fakeDirectory) connect(nick, addr string) ulid.ULID {
	id := ulid.Make()
	d.mu.Lock()
	d.sessions[id] = auth.SessionInfo{Nick: nick, Addr: addr}
	d.mu.Unlock()
	return id
}

func (d *fakeDirectory) Lookup(id ulid.ULID) (auth.SessionInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	info, ok := d.sessions[id]
	return info, ok
}

func (d *fakeDirectory) Notify(id ulid.ULID, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[id]; !ok {
		return
	}
	d.notices[id] = append(d.notices[id], message)
}

func (d *fakeDirectory) noticesFor(id ulid.ULID) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notices[id]
}

// staticVerifier is an auth.PasswordVerifier with a fixed answer.
type staticVerifier struct {
	match bool
	err   error
}

func (v staticVerifier) Verify(_, _ string) (bool, error) {
	return v.match, v.err
}

// captureExecutor records the dispatched query and sink without running
// anything.
type captureExecutor struct {
	sink auth.ResultSink
	q    auth.Query
	runs int
}

func (e *captureExecutor) Run(_ context.Context, sink auth.ResultSink, q auth.Query) {
	e.sink = sink
	e.q = q
	e.runs++
}

// row builds an auth.Row from alternating column/value pairs.
func row(pairs ...any) auth.Row {
	r := make(auth.Row, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		r[pairs[i].(string)] = pairs[i+1]
	}
	return r
}
