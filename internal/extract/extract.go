// Package extract turns article URLs into readable plain text.
//
// Extraction is best effort: the pipeline treats an empty string as "no
// text" and moves on, so nothing here returns an error to the caller.
package extract

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/lommaks/researchdigest/internal/logging"
)

// DefaultMaxChars caps extracted text so LLM prompts stay bounded.
const DefaultMaxChars = 8000

const userAgent = "Mozilla/5.0 (DailyDigestBot)"

// Extractor fetches a page and extracts its readable text.
type Extractor struct {
	client   *http.Client
	maxChars int
}

// NewExtractor creates an Extractor with the given HTTP timeout and
// character cap. maxChars <= 0 uses DefaultMaxChars.
func NewExtractor(timeout time.Duration, maxChars int) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Extractor{
		client:   &http.Client{Timeout: timeout},
		maxChars: maxChars,
	}
}

// Text fetches pageURL and returns its readable text, or "" on any failure.
func (e *Extractor) Text(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		logging.Debug("article request build failed", "url", pageURL, "error", err)
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		logging.Debug("article fetch failed", "url", pageURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logging.Debug("article fetch non-200", "url", pageURL, "status", resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return ""
	}

	if text := e.readable(body, pageURL); text != "" {
		return text
	}
	return e.stripped(body)
}

// readable runs readability extraction over the fetched HTML.
func (e *Extractor) readable(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(string(body)), u)
	if err != nil {
		return ""
	}
	return e.collapse(article.TextContent)
}

// stripped is the fallback: drop script/style and take the document text.
func (e *Extractor) stripped(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return e.collapse(doc.Text())
}

// collapse normalizes whitespace and enforces the character cap.
func (e *Extractor) collapse(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > e.maxChars {
		cut := e.maxChars
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
