// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

import "strings"

// legacyBcryptTag is the storage-format prefix some external stores put in
// front of bcrypt hashes (Django-style "bcrypt$$2a$10$...").
const legacyBcryptTag = "bcrypt$$"

// NormalizeHash converts an externally-stored hash string into the canonical
// form the password verifier expects. A hash carrying the legacy bcrypt tag
// has the tag replaced with a single "$"; everything after the tag (version,
// cost, salt, digest) is preserved unchanged. Any other input is returned
// as-is.
//
// No structural validation happens here. A malformed hash passes through and
// surfaces later as a verification failure, which keeps new storage-format
// variants additive.
func NormalizeHash(raw string) string {
	if rest, ok := strings.CutPrefix(raw, legacyBcryptTag); ok {
		return "$" + rest
	}
	return raw
}
