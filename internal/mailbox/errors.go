package mailbox

import "errors"

// Pass-fatal errors: a pass that hits one of these aborts before any
// message is touched.
var (
	ErrConnection     = errors.New("mailbox connection failed")
	ErrAuth           = errors.New("mailbox authentication rejected")
	ErrFolderNotFound = errors.New("mailbox folder not found")
)

// ErrFetch is message-fatal only: the message vanished between enumeration
// and fetch (deleted by another client). The pass skips it and continues.
var ErrFetch = errors.New("message fetch failed")
