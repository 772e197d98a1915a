// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAccountExists is returned when creating an account whose primary
// nickname is already bound to an account core.
var ErrAccountExists = errors.New("account already exists")
