package mailbox

import "strings"

// DefaultPrefix is the root-inbox addressing convention seen on Dovecot-style
// stores where folders live under INBOX with a dot separator.
const DefaultPrefix = "INBOX."

// PathCandidates returns the folder paths to try for a logical folder name,
// configured addressing convention first, alternate convention second. Mail
// stores disagree on whether folders are addressed bare ("Invoices &
// Payments") or under the root inbox ("INBOX.Invoices & Payments"); callers
// try each in order and surface failure only when all fail.
func PathCandidates(folder, configuredPrefix string) []string {
	bare := strings.TrimPrefix(folder, configuredPrefix)
	if configuredPrefix == "" {
		bare = strings.TrimPrefix(folder, DefaultPrefix)
	}

	prefix := configuredPrefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	prefixed := prefix + bare

	if configuredPrefix == "" {
		return []string{bare, prefixed}
	}
	return []string{prefixed, bare}
}
