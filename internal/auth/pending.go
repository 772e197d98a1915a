// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

import "sync"

// CompletionHandler receives the terminal outcome of a login attempt.
// Exactly one of the two methods is invoked, exactly once, when the last
// hold on the PendingLogin is dropped.
type CompletionHandler interface {
	OnSuccess(account string)
	OnFail(account string)
}

// CompletionFuncs adapts plain functions to a CompletionHandler.
// Nil fields are skipped.
type CompletionFuncs struct {
	Success func(account string)
	Fail    func(account string)
}

// OnSuccess calls the Success func if set.
func (c CompletionFuncs) OnSuccess(account string) {
	if c.Success != nil {
		c.Success(account)
	}
}

// OnFail calls the Fail func if set.
func (c CompletionFuncs) OnFail(account string) {
	if c.Fail != nil {
		c.Fail(account)
	}
}

// PendingLogin represents one in-flight login attempt. The host creates one
// per attempt; components that need the attempt kept open take a hold with
// an explicit owner token and release it when done. Completion fires when
// the last hold is released, with success only if Succeed was called first.
//
// The supplied password is held only until completion and is cleared as
// part of the terminal transition.
type PendingLogin struct {
	mu        sync.Mutex
	account   string
	password  string
	holds     map[any]struct{}
	succeeded bool
	completed bool
	handler   CompletionHandler
}

// NewPendingLogin creates a PendingLogin for one attempt.
func NewPendingLogin(account, password string, handler CompletionHandler) *PendingLogin {
	return &PendingLogin{
		account:  account,
		password: password,
		holds:    make(map[any]struct{}),
		handler:  handler,
	}
}

// Account returns the account name under verification.
func (p *PendingLogin) Account() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.account
}

// Password returns the supplied plaintext password. After completion it
// returns the empty string.
func (p *PendingLogin) Password() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.password
}

// Hold registers owner as keeping the attempt open. Holding twice with the
// same owner is a no-op. A hold taken after completion is ignored.
func (p *PendingLogin) Hold(owner any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.completed || owner == nil {
		return
	}
	p.holds[owner] = struct{}{}
}

// Release drops owner's hold. Releasing an owner that holds nothing is a
// no-op, so a double release cannot complete the attempt twice. When the
// last hold is dropped the completion handler fires.
func (p *PendingLogin) Release(owner any) {
	p.mu.Lock()
	if _, held := p.holds[owner]; !held {
		p.mu.Unlock()
		return
	}
	delete(p.holds, owner)
	p.completeLocked()
}

// Succeed marks the attempt successful and drops owner's hold. The success
// flag sticks; the handler still fires only when the last hold is gone.
func (p *PendingLogin) Succeed(owner any) {
	p.mu.Lock()
	if p.completed {
		p.mu.Unlock()
		return
	}
	p.succeeded = true
	if _, held := p.holds[owner]; !held {
		p.mu.Unlock()
		return
	}
	delete(p.holds, owner)
	p.completeLocked()
}

// Completed reports whether the attempt has reached a terminal state.
func (p *PendingLogin) Completed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

// Succeeded reports whether the attempt completed successfully.
func (p *PendingLogin) Succeeded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed && p.succeeded
}

// completeLocked fires the handler if no holds remain. Called with p.mu
// held; unlocks before invoking the handler so handlers may call back into
// the PendingLogin.
func (p *PendingLogin) completeLocked() {
	if p.completed || len(p.holds) > 0 {
		p.mu.Unlock()
		return
	}
	p.completed = true
	p.password = ""
	account := p.account
	succeeded := p.succeeded
	handler := p.handler
	p.mu.Unlock()

	if handler == nil {
		return
	}
	if succeeded {
		handler.OnSuccess(account)
	} else {
		handler.OnFail(account)
	}
}
