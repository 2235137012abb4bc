package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/arlo-ai/arlo/internal/log"
)

const (
	// pageTimeout bounds one page download.
	pageTimeout = 20 * time.Second

	// maxPageBytes limits how much of a page is read.
	maxPageBytes = 5 * 1024 * 1024

	// excerptMaxLen caps the raw-content fallback excerpt.
	excerptMaxLen = 1000

	// browserUserAgent mirrors a real browser; some hosts serve empty
	// shells to unknown agents.
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// PageSummary is the structured result of extracting one webpage. A page
// matching none of the heuristics still yields a summary with empty
// sections and a raw-content excerpt.
type PageSummary struct {
	URL       string      `json:"url"`
	Title     string      `json:"title,omitempty"`
	Jobs      []JobEntry  `json:"jobs,omitempty"`
	Skills    []string    `json:"skills,omitempty"`
	Projects  []string    `json:"projects,omitempty"`
	Education []string    `json:"education,omitempty"`
	Contact   ContactInfo `json:"contact"`
	Excerpt   string      `json:"excerpt,omitempty"`
}

// JobEntry is one role extracted from a page.
type JobEntry struct {
	Title     string `json:"title,omitempty"`
	Company   string `json:"company,omitempty"`
	DateRange string `json:"date_range,omitempty"`
	Current   bool   `json:"current"`
}

// ContactInfo holds contact points scraped from a page.
type ContactInfo struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// blockBreaks marks where HTML structure implies a line break.
var blockBreaks = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|tr|h[1-6]|section|article|header|footer)>`)

// PageExtractor fetches webpages and runs the profile heuristics on them.
type PageExtractor struct {
	client *http.Client
	logger log.Logger
}

// NewPageExtractor creates a PageExtractor with its own HTTP client.
func NewPageExtractor(logger log.Logger) *PageExtractor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &PageExtractor{
		client: &http.Client{Timeout: pageTimeout},
		logger: logger,
	}
}

// Extract downloads the page and returns a structured summary.
func (e *PageExtractor) Extract(ctx context.Context, rawURL string) (*PageSummary, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch returned status %d for %s", resp.StatusCode, parsed)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read page body: %w", err)
	}

	summary := Summarize(parsed.String(), string(body))
	e.logger.Debug("extracted page",
		"url", parsed.String(),
		"jobs", len(summary.Jobs),
		"skills", len(summary.Skills),
	)
	return summary, nil
}

// Summarize runs the extraction heuristics over raw HTML (or plain text).
func Summarize(pageURL, body string) *PageSummary {
	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(body))

	text := pageText(body, doc, docErr == nil)
	lines := nonEmptyLines(text)

	summary := &PageSummary{
		URL:       pageURL,
		Jobs:      extractJobs(lines),
		Skills:    extractTopic(lines, skillKeywords),
		Projects:  extractTopic(lines, projectKeywords),
		Education: extractTopic(lines, educationKeywords),
		Contact:   extractContacts(text, doc, docErr == nil),
		Excerpt:   excerpt(text),
	}
	if docErr == nil {
		summary.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return summary
}

// pageText converts the page body to plain text with line structure
// preserved at block boundaries.
func pageText(body string, doc *goquery.Document, parsed bool) string {
	if !strings.Contains(body, "<") {
		return collapseLines(body)
	}

	// Insert explicit breaks before stripping tags so block structure
	// survives as lines the heuristics can scan.
	broken := blockBreaks.ReplaceAllString(body, "\n$0")
	if parsed {
		doc2, err := goquery.NewDocumentFromReader(strings.NewReader(broken))
		if err == nil {
			doc = doc2
		}
		doc.Find("script, style, noscript, svg, iframe").Remove()
		root := doc.Find("body")
		if root.Length() == 0 {
			root = doc.Selection
		}
		return collapseLines(root.Text())
	}
	return collapseLines(broken)
}

func collapseLines(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			out = append(out, strings.Join(fields, " "))
		}
	}
	return strings.Join(out, "\n")
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func excerpt(text string) string {
	runes := []rune(strings.ReplaceAll(text, "\n", " "))
	if len(runes) <= excerptMaxLen {
		return string(runes)
	}
	return string(runes[:excerptMaxLen]) + "..."
}
