package fetch

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Topic keywords for the keyword-window heuristic.
var (
	skillKeywords     = []string{"skills", "technologies", "tech stack", "proficient", "expertise", "tooling"}
	projectKeywords   = []string{"project", "portfolio", "built ", "created ", "open source", "side project"}
	educationKeywords = []string{"education", "university", "degree", "bachelor", "master", "phd", "bootcamp"}
)

const (
	topicEntryMinLen = 20
	topicEntryMaxLen = 500
	topicEntryCap    = 5
)

var (
	// dateRangeRe matches spans like "2019 - 2023", "Jan 2021 to Present"
	// or "03/2020 - 11/2022".
	dateRangeRe = regexp.MustCompile(`(?i)((?:[a-z]{3,9}\.?\s+)?\d{4}|\d{1,2}/\d{4})\s*(?:-|–|—|to|until)\s*((?:[a-z]{3,9}\.?\s+)?\d{4}|\d{1,2}/\d{4}|present|current|now)`)

	presentRe = regexp.MustCompile(`(?i)\bpresent\b`)

	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
)

// roleSeparators split a "Title @ Company" style line, tried in order.
var roleSeparators = []string{"@", " at ", " - ", " | "}

// extractJobs scans lines for date ranges and the word "present" to build
// role entries from the surrounding context. Deduplicated by company and
// title.
func extractJobs(lines []string) []JobEntry {
	var jobs []JobEntry
	seen := make(map[string]bool)

	for i, line := range lines {
		dateRange := dateRangeRe.FindString(line)
		current := presentRe.MatchString(line)
		if dateRange == "" && !current {
			continue
		}

		title, company := roleContext(lines, i)
		if title == "" && company == "" && dateRange == "" {
			continue
		}

		key := strings.ToLower(company + "|" + title)
		if seen[key] {
			continue
		}
		seen[key] = true

		jobs = append(jobs, JobEntry{
			Title:     title,
			Company:   company,
			DateRange: dateRange,
			Current:   current,
		})
	}
	return jobs
}

// roleContext pulls a title and company from the date line itself or the
// one or two lines above it.
func roleContext(lines []string, i int) (title, company string) {
	for offset := 0; offset <= 2; offset++ {
		idx := i - offset
		if idx < 0 {
			break
		}
		candidate := dateRangeRe.ReplaceAllString(lines[idx], "")
		candidate = presentRe.ReplaceAllString(candidate, "")
		candidate = strings.Trim(candidate, " \t-–|,()")
		if candidate == "" {
			continue
		}

		for _, sep := range roleSeparators {
			if before, after, ok := strings.Cut(candidate, sep); ok {
				title = strings.TrimSpace(before)
				company = strings.TrimSpace(after)
				if title != "" || company != "" {
					return title, company
				}
			}
		}
		if title == "" {
			title = candidate
		} else if company == "" {
			company = candidate
			return title, company
		}
	}
	return title, company
}

// extractTopic captures a bounded window of lines around each keyword hit.
// Entries are deduplicated and capped.
func extractTopic(lines []string, keywords []string) []string {
	var entries []string
	seen := make(map[string]bool)

	for i, line := range lines {
		if !containsKeyword(line, keywords) {
			continue
		}

		entry := window(lines, i)
		if len(entry) < topicEntryMinLen {
			continue
		}
		if len(entry) > topicEntryMaxLen {
			entry = entry[:topicEntryMaxLen]
		}

		key := strings.ToLower(entry)
		if seen[key] {
			continue
		}
		seen[key] = true

		entries = append(entries, entry)
		if len(entries) == topicEntryCap {
			break
		}
	}
	return entries
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func containsKeyword(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// window joins the keyword line with its immediate neighbors.
func window(lines []string, i int) string {
	lo := max(0, i-1)
	hi := min(len(lines), i+2)
	return strings.TrimSpace(strings.Join(lines[lo:hi], " "))
}

// extractContacts pulls email and phone from the text and profile links
// from anchor hrefs.
func extractContacts(text string, doc *goquery.Document, parsed bool) ContactInfo {
	var contact ContactInfo

	contact.Email = emailRe.FindString(text)
	for _, candidate := range phoneRe.FindAllString(text, -1) {
		// Date ranges also match the loose pattern; a real phone number
		// carries at least nine digits.
		if digitCount(candidate) >= 9 {
			contact.Phone = strings.TrimSpace(candidate)
			break
		}
	}

	if !parsed {
		return contact
	}
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		switch {
		case contact.LinkedIn == "" && strings.Contains(href, "linkedin.com"):
			contact.LinkedIn = href
		case contact.GitHub == "" && strings.Contains(href, "github.com"):
			contact.GitHub = href
		}
		return contact.LinkedIn == "" || contact.GitHub == ""
	})
	return contact
}
