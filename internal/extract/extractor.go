// Package extract turns arbitrary MIME payloads into a normalized content
// record for classification. Extraction is a total function: parse anomalies
// degrade to placeholder or empty values, they never abort a message.
package extract

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/charmap"
)

// wordDecoder decodes MIME encoded-word header values (subject, sender)
// independently of body decoding. Importing the charset package also hooks
// declared-charset decoding into go-message body reads.
var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// Content is the canonical representation of one message. Subject, Sender
// and Body are always non-nil strings; Body is empty when the message has no
// textual part.
type Content struct {
	Subject string
	Sender  string
	Date    string // raw header value, empty if absent
	Body    string

	// Prefix-truncated derivatives for the two downstream inference calls.
	SentimentText string
	CategoryText  string

	HasHTML        bool
	EncodingIssues bool
}

// Options configures an Extractor.
type Options struct {
	SentimentMaxChars int
	CategoryMaxChars  int
	// FallbackCharset is the single-byte encoding tried when a part is
	// neither valid UTF-8 nor carries a known declared charset.
	FallbackCharset string
}

// Extractor extracts normalized content from raw messages.
type Extractor struct {
	sentimentCap int
	categoryCap  int
	fallback     *charmap.Charmap
	html         *HTMLConverter
}

// New creates an Extractor with the given caps and fallback encoding.
func New(opts Options) *Extractor {
	return &Extractor{
		sentimentCap: opts.SentimentMaxChars,
		categoryCap:  opts.CategoryMaxChars,
		fallback:     fallbackEncoding(opts.FallbackCharset),
		html:         NewHTMLConverter(),
	}
}

// Extract produces the canonical content record for a raw message. It never
// fails: whatever cannot be parsed is substituted with empty values.
func (x *Extractor) Extract(raw []byte) Content {
	var content Content

	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		content.EncodingIssues = true
	}
	if entity == nil {
		return x.finalize(content)
	}

	content.Subject = x.headerText(entity.Header.Get("Subject"), &content)
	content.Sender = x.headerText(entity.Header.Get("From"), &content)
	content.Date = strings.TrimSpace(entity.Header.Get("Date"))

	var plain, html string
	walkErr := entity.Walk(func(_ []int, part *message.Entity, err error) error {
		if err != nil && !message.IsUnknownCharset(err) {
			content.EncodingIssues = true
			return nil
		}
		if part == nil || isAttachment(part) {
			return nil
		}

		mediaType, _, _ := part.Header.ContentType()
		switch {
		case mediaType == "text/plain" && plain == "":
			plain = x.readPart(part, &content)
		case mediaType == "text/html" && html == "":
			html = x.readPart(part, &content)
			content.HasHTML = html != ""
		}
		return nil
	})
	if walkErr != nil {
		content.EncodingIssues = true
	}

	switch {
	case strings.TrimSpace(plain) != "":
		content.Body = strings.TrimSpace(plain)
	case html != "":
		content.Body = x.html.Convert(html)
	}

	return x.finalize(content)
}

// finalize fills the truncated derivatives. An empty body falls back to the
// subject so the classifiers always receive some signal.
func (x *Extractor) finalize(c Content) Content {
	source := c.Body
	if strings.TrimSpace(source) == "" {
		source = c.Subject
	}
	c.SentimentText = truncate(source, x.sentimentCap)
	c.CategoryText = truncate(source, x.categoryCap)
	return c
}

// headerText decodes an encoded-word header value, falling back to the raw
// value when decoding fails.
func (x *Extractor) headerText(value string, c *Content) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		c.EncodingIssues = true
		return value
	}
	return strings.TrimSpace(decoded)
}

// readPart reads a body part, applying the decoding policy for bytes the
// library could not decode itself: UTF-8 first, then the configured fallback
// encoding, then replacement of whatever is left.
func (x *Extractor) readPart(part *message.Entity, c *Content) string {
	data, err := io.ReadAll(part.Body)
	if err != nil {
		c.EncodingIssues = true
		return string(data)
	}
	if utf8.Valid(data) {
		return string(data)
	}

	c.EncodingIssues = true
	if decoded, err := x.fallback.NewDecoder().Bytes(data); err == nil {
		return string(decoded)
	}
	return strings.ToValidUTF8(string(data), "�")
}

func isAttachment(part *message.Entity) bool {
	disposition := part.Header.Get("Content-Disposition")
	if disposition == "" {
		return false
	}
	kind, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return strings.Contains(strings.ToLower(disposition), "attachment")
	}
	return kind == "attachment" || params["filename"] != ""
}

// truncate is a plain prefix truncation in characters, not word-boundary
// aware.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func fallbackEncoding(name string) *charmap.Charmap {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1
	case "iso-8859-15":
		return charmap.ISO8859_15
	case "koi8-r":
		return charmap.KOI8R
	default:
		return charmap.Windows1252
	}
}
