package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/arlo-ai/arlo/internal/log"
)

const (
	// pageFetchTimeout bounds one page download.
	pageFetchTimeout = 20 * time.Second

	// maxPageBytes limits how much of a page is read.
	maxPageBytes = 5 * 1024 * 1024

	// browserUserAgent makes fetches look like a regular browser; several
	// hosting providers serve empty shells to unknown agents.
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// PageClient fetches webpages and extracts their visible text.
// Readability-based article extraction is tried first; pages without an
// identifiable article body fall back to stripped full-body text.
type PageClient struct {
	client *http.Client
	logger log.Logger
}

// NewPageClient creates a PageClient with its own pooled HTTP client.
func NewPageClient(logger log.Logger) *PageClient {
	if logger == nil {
		logger = log.NewNop()
	}
	return &PageClient{
		client: &http.Client{Timeout: pageFetchTimeout},
		logger: logger,
	}
}

// FetchText downloads the page and returns its visible text with tags
// stripped and whitespace collapsed.
func (c *PageClient) FetchText(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", pageURL, err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch returned status %d for %s", resp.StatusCode, parsed)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}

	text := c.extractText(string(body), parsed)
	c.logger.Debug("fetched page", "url", parsed.String(), "text_length", len(text))
	return text, nil
}

// extractText converts HTML to plain text. Non-HTML payloads pass through
// with whitespace collapsed.
func (c *PageClient) extractText(body string, pageURL *url.URL) string {
	if !strings.Contains(body, "<") {
		return collapseWhitespace(body)
	}

	// Article extraction gives much cleaner text on content pages.
	if article, err := readability.FromReader(strings.NewReader(body), pageURL); err == nil {
		if text := collapseWhitespace(article.TextContent); text != "" {
			return text
		}
	}

	return StripHTML(body)
}

// StripHTML removes scripts, styles and markup from an HTML fragment and
// returns its text with whitespace collapsed.
func StripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapseWhitespace(html)
	}

	doc.Find("script, style, noscript, svg, iframe").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return collapseWhitespace(root.Text())
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		if fields := strings.Fields(line); len(fields) > 0 {
			out = append(out, strings.Join(fields, " "))
		}
	}
	return strings.Join(out, "\n")
}
