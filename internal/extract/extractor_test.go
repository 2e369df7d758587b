package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *Extractor {
	return New(Options{
		SentimentMaxChars: 1000,
		CategoryMaxChars:  1000,
		FallbackCharset:   "windows-1252",
	})
}

func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func TestExtract_PlainTextMessage(t *testing.T) {
	raw := crlf(`From: Alice <alice@example.com>
To: team@example.com
Subject: RE: Project Update
Date: Mon, 24 Aug 2026 10:00:00 +0000
Content-Type: text/plain; charset=utf-8

The milestone is on track. Attached notes follow next week.
`)

	content := newTestExtractor().Extract([]byte(raw))

	assert.Equal(t, "RE: Project Update", content.Subject)
	assert.Contains(t, content.Sender, "alice@example.com")
	assert.NotEmpty(t, content.Date)
	assert.Contains(t, content.Body, "milestone is on track")
	assert.False(t, content.HasHTML)
	assert.False(t, content.EncodingIssues)
}

func TestExtract_PrefersPlainOverHTML(t *testing.T) {
	raw := crlf(`From: news@example.com
Subject: Offer
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

plain body wins
--b1
Content-Type: text/html; charset=utf-8

<html><body><p>html body</p></body></html>
--b1--
`)

	content := newTestExtractor().Extract([]byte(raw))
	assert.Equal(t, "plain body wins", content.Body)
}

func TestExtract_HTMLOnlyMessage(t *testing.T) {
	raw := crlf(`From: shop@example.com
Subject: Sale
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/html; charset=utf-8

<html><body><script>track()</script><p>Everything half price</p></body></html>
--b1--
`)

	content := newTestExtractor().Extract([]byte(raw))
	assert.True(t, content.HasHTML)
	assert.Contains(t, content.Body, "Everything half price")
	assert.NotContains(t, content.Body, "track()")
}

func TestExtract_NoTextualPart(t *testing.T) {
	raw := crlf(`From: sender@example.com
Subject: Scan attached
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="b1"

--b1
Content-Type: application/pdf
Content-Disposition: attachment; filename="scan.pdf"
Content-Transfer-Encoding: base64

JVBERi0xLjQ=
--b1--
`)

	content := newTestExtractor().Extract([]byte(raw))

	// Body stays empty, the subject backs the classifier inputs.
	assert.Equal(t, "", content.Body)
	assert.Equal(t, "Scan attached", content.Subject)
	assert.Equal(t, "Scan attached", content.SentimentText)
	assert.Equal(t, "Scan attached", content.CategoryText)
}

func TestExtract_AttachmentTextPartIgnored(t *testing.T) {
	raw := crlf(`From: sender@example.com
Subject: Logs
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

see the attached log
--b1
Content-Type: text/plain; charset=utf-8
Content-Disposition: attachment; filename="debug.log"

ERROR everything is broken
--b1--
`)

	content := newTestExtractor().Extract([]byte(raw))
	assert.Equal(t, "see the attached log", content.Body)
	assert.NotContains(t, content.Body, "everything is broken")
}

func TestExtract_EncodedWordHeaders(t *testing.T) {
	raw := crlf(`From: =?UTF-8?Q?J=C3=BCrgen?= <juergen@example.de>
Subject: =?UTF-8?B?UmVjaG51bmcgZsO8ciBNw6Ryeg==?=
Content-Type: text/plain; charset=utf-8

Anbei die Rechnung.
`)

	content := newTestExtractor().Extract([]byte(raw))
	assert.Equal(t, "Rechnung für März", content.Subject)
	assert.Contains(t, content.Sender, "Jürgen")
}

func TestExtract_UnknownCharsetFallsBack(t *testing.T) {
	header := crlf(`From: sender@example.com
Subject: Menu
Content-Type: text/plain; charset=x-mystery

`)
	// 0xE9 is é in windows-1252; invalid as UTF-8.
	raw := append([]byte(header), []byte("caf\xe9 du jour\r\n")...)

	content := newTestExtractor().Extract(raw)
	assert.Contains(t, content.Body, "café du jour")
	assert.True(t, content.EncodingIssues)
}

func TestExtract_GarbageInputIsTotal(t *testing.T) {
	for _, raw := range [][]byte{
		nil,
		[]byte(""),
		[]byte("\x00\xff\xfe garbage without structure"),
		[]byte("Subject: only a header\r\n"),
	} {
		content := newTestExtractor().Extract(raw)
		// Never nil strings, never a panic.
		assert.NotNil(t, content.Subject)
		assert.NotNil(t, content.Body)
	}
}

func TestExtract_TruncationCaps(t *testing.T) {
	x := New(Options{
		SentimentMaxChars: 10,
		CategoryMaxChars:  25,
		FallbackCharset:   "windows-1252",
	})

	raw := crlf(`From: sender@example.com
Subject: Long
Content-Type: text/plain; charset=utf-8

`) + strings.Repeat("a", 100)

	content := x.Extract([]byte(raw))
	require.Len(t, []rune(content.SentimentText), 10)
	require.Len(t, []rune(content.CategoryText), 25)
	assert.True(t, strings.HasPrefix(content.Body, content.SentimentText))
}
