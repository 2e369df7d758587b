package mailbox

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// IMAP endpoints of well-known providers, keyed by mail domain. Used to
// default the server address when only the account username is configured.
var knownProviders = map[string]string{
	"gmail.com":      "imap.gmail.com:993",
	"googlemail.com": "imap.gmail.com:993",
	"outlook.com":    "outlook.office365.com:993",
	"hotmail.com":    "outlook.office365.com:993",
	"live.com":       "outlook.office365.com:993",
	"yahoo.com":      "imap.mail.yahoo.com:993",
	"icloud.com":     "imap.mail.me.com:993",
	"me.com":         "imap.mail.me.com:993",
	"aol.com":        "imap.aol.com:993",
	"zoho.com":       "imap.zoho.com:993",
	"fastmail.com":   "imap.fastmail.com:993",
	"gmx.com":        "imap.gmx.com:993",
	"gmx.de":         "imap.gmx.net:993",
	"web.de":         "imap.web.de:993",
}

const probeTimeout = 3 * time.Second

// ResolveServer determines the IMAP server address for a mail account.
// Known providers resolve from the table; everything else probes the common
// imap./mail. host patterns and finally the domain's MX records.
func ResolveServer(account string) (string, error) {
	at := strings.LastIndex(account, "@")
	if at < 1 || at == len(account)-1 {
		return "", fmt.Errorf("invalid mail account %q", account)
	}
	domain := strings.ToLower(account[at+1:])

	if addr, ok := knownProviders[domain]; ok {
		return addr, nil
	}

	for _, host := range []string{"imap." + domain, "mail." + domain, domain} {
		if reachable(host) {
			return host + ":993", nil
		}
	}

	if addr := resolveFromMX(domain); addr != "" {
		return addr, nil
	}

	// Unverified guess, surfaced to the caller as a default.
	return "imap." + domain + ":993", nil
}

func reachable(host string) bool {
	conn, err := net.DialTimeout("tcp", host+":993", probeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// resolveFromMX derives an IMAP host from the domain's primary MX record,
// e.g. mx.example.com -> imap.example.com.
func resolveFromMX(domain string) string {
	records, err := net.LookupMX(domain)
	if err != nil || len(records) == 0 {
		return ""
	}

	mxHost := strings.TrimSuffix(records[0].Host, ".")
	parts := strings.SplitN(mxHost, ".", 2)
	if len(parts) != 2 {
		return ""
	}

	for _, host := range []string{"imap." + parts[1], "mail." + parts[1]} {
		if reachable(host) {
			return host + ":993"
		}
	}
	return ""
}
