package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLConverter renders HTML email bodies to plain text suitable for
// classification: markup stripped, tracking artifacts removed, link targets
// inlined.
type HTMLConverter struct {
	spaceRegex    *regexp.Regexp
	newlineRegex  *regexp.Regexp
	trackingRegex *regexp.Regexp
}

// NewHTMLConverter creates a new HTML converter
func NewHTMLConverter() *HTMLConverter {
	return &HTMLConverter{
		spaceRegex:   regexp.MustCompile(`[^\S\n]+`),
		newlineRegex: regexp.MustCompile(`\n{3,}`),
		// UTM/click-id tracking URLs carry no classification signal
		trackingRegex: regexp.MustCompile(`(?i)utm_|fbclid=|gclid=|/track|/pixel|/beacon`),
	}
}

// Convert renders HTML to clean plain text. A parse failure falls back to
// stripping tags wholesale rather than returning an error.
func (c *HTMLConverter) Convert(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return c.stripTags(html)
	}

	doc.Find("script, style, head, meta, link").Remove()

	// Drop tracking pixels, replace real images with their alt text
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		width, _ := s.Attr("width")
		height, _ := s.Attr("height")
		if (width == "1" && height == "1") || c.trackingRegex.MatchString(src) {
			s.Remove()
			return
		}
		alt, _ := s.Attr("alt")
		if alt == "" {
			alt = "Image"
		}
		s.ReplaceWithHtml("[" + alt + "]")
	})

	// Inline link targets, except tracking links which keep only their text
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		switch {
		case c.trackingRegex.MatchString(href) || href == "" || href == text:
			s.ReplaceWithHtml(text)
		case text == "":
			s.ReplaceWithHtml(href)
		default:
			s.ReplaceWithHtml(text + " (" + href + ")")
		}
	})

	doc.Find("p, div, br, h1, h2, h3, h4, h5, h6, li, tr").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	return c.cleanup(doc.Text())
}

func (c *HTMLConverter) cleanup(text string) string {
	text = c.spaceRegex.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	text = strings.Join(kept, "\n")

	text = c.newlineRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var tagRegex = regexp.MustCompile(`<[^>]+>`)

func (c *HTMLConverter) stripTags(html string) string {
	return c.cleanup(tagRegex.ReplaceAllString(html, " "))
}
