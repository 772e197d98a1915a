// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

// Outcome is the terminal state of one verification attempt.
type Outcome int

// Verification outcomes. Every dispatched attempt ends in exactly one.
const (
	OutcomeUnset Outcome = iota
	OutcomeNotFound
	OutcomeQueryError
	OutcomeHashMalformed
	OutcomeMismatch
	OutcomeSuccess
)

// String returns the metric/log label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeQueryError:
		return "query_error"
	case OutcomeHashMalformed:
		return "hash_malformed"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeSuccess:
		return "success"
	default:
		return "unset"
	}
}
