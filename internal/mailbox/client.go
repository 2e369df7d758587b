package mailbox

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// RawMessage is a fetched message: its UID in the active folder plus the
// unparsed RFC822 payload. Consumed and discarded within one iteration.
type RawMessage struct {
	UID uint32
	Raw []byte
}

// ClientConfig configuration for the IMAP client
type ClientConfig struct {
	Addr         string // host:port
	Username     string
	Password     string
	FolderPrefix string // configured addressing convention, "" for bare names
	DialTimeout  time.Duration
}

// Client is a single authenticated IMAP session. One client serves exactly
// one pass: opened at pass start, logged out at pass end on every exit path.
type Client struct {
	config ClientConfig
	conn   *client.Client
	logger *slog.Logger
	folder string // active folder
}

// Dial establishes an encrypted session and logs in. A single attempt: the
// caller decides whether to re-invoke the whole pass on failure.
func Dial(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	logger = logger.With("server", cfg.Addr)
	logger.Debug("connecting to IMAP server")

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", cfg.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, cfg.Addr, err)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: greeting: %v", ErrConnection, err)
	}

	if err := imapClient.Login(cfg.Username, cfg.Password); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	logger.Debug("logged in", "user", cfg.Username)

	return &Client{
		config: cfg,
		conn:   imapClient,
		logger: logger,
	}, nil
}

// SelectFolder sets the active folder, trying the configured addressing
// convention first and the alternate convention once before giving up.
func (c *Client) SelectFolder(name string) error {
	var lastErr error
	for _, path := range PathCandidates(name, c.config.FolderPrefix) {
		if _, err := c.conn.Select(path, false); err != nil {
			lastErr = err
			continue
		}
		c.folder = path
		return nil
	}
	return fmt.Errorf("%w: %q: %v", ErrFolderNotFound, name, lastErr)
}

// Enumerate returns a one-shot snapshot of matching UIDs in the active
// folder, in ascending order. Server-side changes after the call are not
// reflected.
func (c *Client) Enumerate(crit Criteria) ([]uint32, error) {
	search := imap.NewSearchCriteria()
	if crit.Kind == CriteriaUnseen {
		search.WithoutFlags = []string{imap.SeenFlag}
	}

	uids, err := c.conn.UidSearch(search)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", crit, err)
	}

	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	if crit.Kind == CriteriaRecent && len(uids) > crit.N {
		uids = uids[len(uids)-crit.N:]
	}

	return uids, nil
}

// Fetch retrieves the full payload for one UID. The body section is peeked
// so preview runs do not set \Seen as a side effect. A vanished message
// (deleted concurrently by another client) wraps ErrFetch.
func (c *Client) Fetch(uid uint32) (RawMessage, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.conn.UidFetch(seqSet, items, messages)
	}()

	var raw []byte
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		data, err := io.ReadAll(body)
		if err != nil {
			continue
		}
		raw = data
	}

	if err := <-done; err != nil {
		return RawMessage{}, fmt.Errorf("%w: uid %d: %v", ErrFetch, uid, err)
	}
	if raw == nil {
		return RawMessage{}, fmt.Errorf("%w: uid %d vanished", ErrFetch, uid)
	}

	return RawMessage{UID: uid, Raw: raw}, nil
}

// Relocate moves a message to the destination folder: copy, flag \Deleted,
// expunge, in that order. Relocating a UID that is already gone from the
// source folder is a silent no-op, so a partially completed relocate is safe
// to re-attempt on a later pass.
func (c *Client) Relocate(uid uint32, folder string) error {
	exists, err := c.uidExists(uid)
	if err != nil {
		return fmt.Errorf("relocate uid %d: %w", uid, err)
	}
	if !exists {
		c.logger.Debug("uid already absent from source folder, skipping relocate", "uid", uid)
		return nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	var copied string
	var lastErr error
	for _, path := range PathCandidates(folder, c.config.FolderPrefix) {
		if err := c.conn.UidCopy(seqSet, path); err != nil {
			lastErr = err
			continue
		}
		copied = path
		break
	}
	if copied == "" {
		return fmt.Errorf("%w: copy uid %d to %q: %v", ErrFolderNotFound, uid, folder, lastErr)
	}

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.DeletedFlag}
	if err := c.conn.UidStore(seqSet, item, flags, nil); err != nil {
		return fmt.Errorf("flag uid %d deleted: %w", uid, err)
	}

	if err := c.conn.Expunge(nil); err != nil {
		return fmt.Errorf("expunge uid %d: %w", uid, err)
	}

	c.logger.Debug("message relocated", "uid", uid, "folder", copied)
	return nil
}

// MarkSeen sets the read flag without relocating. Used in preview mode so
// repeated previews do not reprocess the same backlog.
func (c *Client) MarkSeen(uid uint32) error {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := c.conn.UidStore(seqSet, item, flags, nil); err != nil {
		return fmt.Errorf("mark uid %d seen: %w", uid, err)
	}
	return nil
}

// ListFolders returns the names of all folders in the store.
func (c *Client) ListFolders() ([]string, error) {
	mailboxes := make(chan *imap.MailboxInfo, 32)
	done := make(chan error, 1)
	go func() {
		done <- c.conn.List("", "*", mailboxes)
	}()

	var names []string
	for mb := range mailboxes {
		names = append(names, mb.Name)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return names, nil
}

// Logout tears the session down. Safe to call once at end of pass.
func (c *Client) Logout() error {
	return c.conn.Logout()
}

// uidExists reports whether the UID is still present in the active folder.
func (c *Client) uidExists(uid uint32) (bool, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	search := imap.NewSearchCriteria()
	search.Uid = seqSet

	uids, err := c.conn.UidSearch(search)
	if err != nil {
		return false, fmt.Errorf("uid search: %w", err)
	}
	return len(uids) > 0, nil
}

// MissingFolders compares the store's folder list against the required
// folder names and returns the ones absent under both addressing
// conventions.
func MissingFolders(existing, required []string, configuredPrefix string) []string {
	var missing []string
	for _, want := range required {
		if !folderExists(existing, want, configuredPrefix) {
			missing = append(missing, want)
		}
	}
	return missing
}

func folderExists(existing []string, want, configuredPrefix string) bool {
	for _, candidate := range PathCandidates(want, configuredPrefix) {
		for _, have := range existing {
			if strings.EqualFold(have, candidate) {
				return true
			}
		}
	}
	return false
}
