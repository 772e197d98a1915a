// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

// Package session tracks live user connections for the services host.
package session

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nickgate/nickgate/internal/auth"
)

// User is a live connection to the services host.
type User struct {
	ID          ulid.ULID
	Nick        string
	Addr        string
	ConnectedAt time.Time
	notices     []string
}

// Registry manages live user sessions. Components never hold a *User across
// suspension points; they keep the ULID and resolve it here at the moment
// of use, so a vanished session is an ordinary failed lookup.
type Registry struct {
	mu    sync.RWMutex
	users map[ulid.ULID]*User
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[ulid.ULID]*User),
	}
}

// Connect registers a new live session and returns its ID.
func (r *Registry) Connect(nick, addr string) ulid.ULID {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := &User{
		ID:          ulid.Make(),
		Nick:        nick,
		Addr:        addr,
		ConnectedAt: time.Now(),
	}
	r.users[u.ID] = u
	return u.ID
}

// Disconnect removes a session. Unknown IDs are a no-op.
func (r *Registry) Disconnect(id ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// Lookup returns the session's current info, or false if it is gone.
func (r *Registry) Lookup(id ulid.ULID) (auth.SessionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return auth.SessionInfo{}, false
	}
	return auth.SessionInfo{Nick: u.Nick, Addr: u.Addr}, true
}

// Notify queues a user-facing notice for the session. Notices for vanished
// sessions are dropped.
func (r *Registry) Notify(id ulid.ULID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return
	}
	u.notices = append(u.notices, message)
}

// DrainNotices returns and clears the session's queued notices. The host's
// transport layer calls this when flushing output to the connection.
func (r *Registry) DrainNotices(id ulid.ULID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || len(u.notices) == 0 {
		return nil
	}
	notices := u.notices
	u.notices = nil
	return notices
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Compile-time interface check.
var _ auth.SessionDirectory = (*Registry)(nil)
