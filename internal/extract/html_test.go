package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvert_StripsScriptsAndStyles(t *testing.T) {
	c := NewHTMLConverter()
	got := c.Convert(`<html><head><style>p{color:red}</style></head><body><script>evil()</script><p>Hello there</p></body></html>`)
	assert.Equal(t, "Hello there", got)
}

func TestConvert_RemovesTrackingPixels(t *testing.T) {
	c := NewHTMLConverter()
	got := c.Convert(`<p>Offer inside</p><img src="https://t.example.com/pixel.gif" width="1" height="1"><img src="https://cdn.example.com/logo.png" alt="Logo">`)
	assert.Contains(t, got, "Offer inside")
	assert.Contains(t, got, "[Logo]")
	assert.NotContains(t, got, "pixel.gif")
}

func TestConvert_InlinesLinks(t *testing.T) {
	c := NewHTMLConverter()

	got := c.Convert(`<p>See <a href="https://example.com/report">the report</a></p>`)
	assert.Contains(t, got, "the report (https://example.com/report)")

	// Tracking links keep only their text.
	got = c.Convert(`<p><a href="https://x.test/?utm_source=mail">click here</a></p>`)
	assert.Equal(t, "click here", got)
}

func TestConvert_BlockElementsBecomeLines(t *testing.T) {
	c := NewHTMLConverter()
	got := c.Convert(`<div>first</div><div>second</div>`)
	assert.Equal(t, "first\nsecond", got)
}

func TestConvert_EmptyAndBroken(t *testing.T) {
	c := NewHTMLConverter()
	assert.Equal(t, "", c.Convert(""))
	// Unbalanced markup still yields text, not an error.
	assert.Contains(t, c.Convert("<p>unclosed <b>tags"), "unclosed")
}
