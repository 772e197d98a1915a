// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

// Account-management commands gated while the external store owns
// credentials.
const (
	CommandRegister = "nickserv/register"
	CommandGroup    = "nickserv/group"
	CommandSetEmail = "nickserv/set/email"
)

// CommandGate blocks self-service account commands that would desync the
// local records from the external store. A gate with empty reasons blocks
// nothing.
type CommandGate struct {
	registrationReason string
	emailReason        string
}

// NewCommandGate creates a CommandGate. A non-empty registrationReason
// blocks registration and grouping; a non-empty emailReason blocks email
// self-service. The reason text is what the user sees.
func NewCommandGate(registrationReason, emailReason string) *CommandGate {
	return &CommandGate{
		registrationReason: registrationReason,
		emailReason:        emailReason,
	}
}

// PreCommand is invoked by the host before a command executes. It returns
// blocked=true with a user-facing message when the command must not run.
func (g *CommandGate) PreCommand(command string) (message string, blocked bool) {
	if g.registrationReason != "" && (command == CommandRegister || command == CommandGroup) {
		return g.registrationReason, true
	}
	if g.emailReason != "" && command == CommandSetEmail {
		return g.emailReason, true
	}
	return "", false
}

// SuppressExpiry is invoked when the host considers expiring a nickname.
// A primary alias whose account core still has other aliases must not
// expire: the core would be orphaned into a zombie account nobody can
// authenticate to.
func SuppressExpiry(alias NickAlias, acct *Account) bool {
	return alias.IsPrimary(acct) && acct.AliasCount > 1
}
