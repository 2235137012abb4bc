// Package fetch pulls live external content at query time: repository
// listings from GitHub and text extracted from arbitrary webpages.
//
// Fetchers degrade rather than fail: a provider error yields an empty
// result so a broken external source can never break a chat answer.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/arlo-ai/arlo/internal/log"
)

const (
	// githubTimeout bounds one GitHub API call.
	githubTimeout = 15 * time.Second

	// DefaultRepoLimit caps a repository listing when the caller gives none.
	DefaultRepoLimit = 5

	// MaxRepoLimit is the hard cap on one listing.
	MaxRepoLimit = 20
)

// RepoSummary is one repository in a listing, shaped for prompt injection.
type RepoSummary struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	StarCount   int       `json:"star_count"`
	UpdatedAt   time.Time `json:"updated_at"`
	Language    string    `json:"language,omitempty"`
}

// RepoLister lists a profile's public repositories.
type RepoLister struct {
	gh     *gh.Client
	logger log.Logger
}

// NewRepoLister creates a RepoLister. An empty token uses unauthenticated
// access, which GitHub rate-limits aggressively but still serves.
func NewRepoLister(ctx context.Context, token string, logger log.Logger) *RepoLister {
	if logger == nil {
		logger = log.NewNop()
	}

	client := gh.NewClient(nil)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = gh.NewClient(oauth2.NewClient(ctx, ts))
	}
	return &RepoLister{gh: client, logger: logger}
}

// NewRepoListerWithClient creates a RepoLister around an existing client.
// Used by tests to point at a stub server.
func NewRepoListerWithClient(client *gh.Client, logger log.Logger) *RepoLister {
	if logger == nil {
		logger = log.NewNop()
	}
	return &RepoLister{gh: client, logger: logger}
}

// ListRecent lists the profile's repositories most recently updated first.
// The profile may be a bare handle or a full profile URL. Any failure yields
// an empty list, never an error.
func (l *RepoLister) ListRecent(ctx context.Context, profile string, limit int) []RepoSummary {
	handle := ParseHandle(profile)
	if handle == "" {
		l.logger.Warn("could not extract a handle from profile", "profile", profile)
		return nil
	}
	if limit <= 0 {
		limit = DefaultRepoLimit
	}
	if limit > MaxRepoLimit {
		limit = MaxRepoLimit
	}

	ctx, cancel := context.WithTimeout(ctx, githubTimeout)
	defer cancel()

	repos, _, err := l.gh.Repositories.ListByUser(ctx, handle, &gh.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: limit},
	})
	if err != nil {
		l.logger.Warn("repository listing failed", "handle", handle, "error", err)
		return nil
	}

	summaries := make([]RepoSummary, 0, len(repos))
	for _, repo := range repos {
		summaries = append(summaries, RepoSummary{
			Name:        repo.GetName(),
			Description: repo.GetDescription(),
			URL:         repo.GetHTMLURL(),
			StarCount:   repo.GetStargazersCount(),
			UpdatedAt:   repo.GetUpdatedAt().Time,
			Language:    repo.GetLanguage(),
		})
		if len(summaries) == limit {
			break
		}
	}

	l.logger.Debug("listed repositories", "handle", handle, "count", len(summaries))
	return summaries
}

// Readme returns the decoded README text of one repository.
func (l *RepoLister) Readme(ctx context.Context, profile, repo string) (string, error) {
	handle := ParseHandle(profile)
	if handle == "" {
		return "", fmt.Errorf("no handle in profile %q", profile)
	}

	ctx, cancel := context.WithTimeout(ctx, githubTimeout)
	defer cancel()

	file, _, err := l.gh.Repositories.GetReadme(ctx, handle, repo, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch README for %s/%s: %w", handle, repo, err)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode README for %s/%s: %w", handle, repo, err)
	}
	return content, nil
}

// ParseRepoURL splits a GitHub repository URL into handle and repository
// name. ok is false for anything that is not a repo URL.
func ParseRepoURL(raw string) (handle, repo string, ok bool) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "github.com") {
		return "", "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ParseHandle extracts a GitHub handle from a bare name, an @name or a
// profile/repository URL. Returns "" when nothing usable is found.
func ParseHandle(profile string) string {
	profile = strings.TrimSpace(profile)
	profile = strings.TrimPrefix(profile, "@")
	if profile == "" {
		return ""
	}

	if strings.Contains(profile, "github.com") {
		raw := profile
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			return ""
		}
		return parts[0]
	}

	// A bare handle never contains a slash.
	if strings.Contains(profile, "/") {
		return ""
	}
	return profile
}
