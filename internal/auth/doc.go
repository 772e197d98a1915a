// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

// Package auth implements the external credential-verification pipeline.
//
// A login attempt enters through the Gateway, which binds the configured
// lookup query and dispatches it through a QueryExecutor. The executor
// later invokes a CredentialVerifier (exactly once) with either a result
// set or an error. The verifier normalizes the stored hash, checks the
// supplied password against it, and on a match hands off to the
// Synchronizer, which materializes or updates the local account record.
// The outcome is reported to the host's PendingLogin exactly once.
//
// # Exactly-once completion
//
// Every verifier takes a hold on its PendingLogin at construction and
// releases it on every terminal path. The PendingLogin fires its
// completion handler when the last hold is dropped, so the host can
// neither finalize an attempt early nor observe two outcomes.
//
// # Sessions
//
// A login may occur before any user session exists, and a session may
// disconnect while the lookup is in flight. The pipeline therefore never
// stores a session object; it stores a session ID and resolves it through
// a SessionDirectory at the moment of use.
package auth
