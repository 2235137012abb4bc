package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/arlo-ai/arlo/internal/fetch"
	"github.com/arlo-ai/arlo/internal/persona"
)

// Chat tool names. Dispatch is by name, in the order the model requested;
// one round only, the follow-up completion carries no tools.
const (
	ToolFetchProjects = "fetch_latest_projects"
	ToolFetchURL      = "fetch_url_content"
)

// urlRefusal is the tool result for a URL outside the allow-list. A
// refusal is data for the model, not an error.
const urlRefusal = "That URL is not among this site's approved sources, so its content cannot be fetched."

// readmeMaxLen caps README text injected as a tool result.
const readmeMaxLen = 4000

// ProjectsArgs is the input of fetch_latest_projects.
type ProjectsArgs struct {
	Limit int `json:"limit,omitempty" jsonschema_description:"How many repositories to list, most recently updated first"`
}

// URLArgs is the input of fetch_url_content.
type URLArgs struct {
	URL string `json:"url" jsonschema_description:"The URL to fetch, must be one of the available URL sources"`
}

// ToolNames returns refs to the two chat tools by name. The definitions
// carrying the input schemas are registered at wiring time.
func ToolNames() []ai.ToolRef {
	return []ai.ToolRef{ai.ToolName(ToolFetchProjects), ai.ToolName(ToolFetchURL)}
}

// runTool executes one tool request and returns its output value. Failures
// and refusals come back as strings for the model to relay; they never
// abort the request.
func (s *Service) runTool(ctx context.Context, req *ai.ToolRequest, personaCfg persona.Config, allowList []string) any {
	switch req.Name {
	case ToolFetchProjects:
		var args ProjectsArgs
		if err := decodeArgs(req.Input, &args); err != nil {
			return fmt.Sprintf("The tool call arguments could not be read: %v.", err)
		}
		return s.fetchProjects(ctx, personaCfg, args)

	case ToolFetchURL:
		var args URLArgs
		if err := decodeArgs(req.Input, &args); err != nil {
			return fmt.Sprintf("The tool call arguments could not be read: %v.", err)
		}
		return s.fetchURL(ctx, args.URL, allowList)

	default:
		return fmt.Sprintf("Unknown tool %q.", req.Name)
	}
}

func (s *Service) fetchProjects(ctx context.Context, personaCfg persona.Config, args ProjectsArgs) any {
	if s.cfg.Projects == nil || personaCfg.Links.GitHub == "" {
		return "No code-host profile is configured for this site."
	}

	repos := s.cfg.Projects.ListRecent(ctx, personaCfg.Links.GitHub, args.Limit)
	if len(repos) == 0 {
		return "No recent repositories could be listed right now."
	}
	return repos
}

func (s *Service) fetchURL(ctx context.Context, rawURL string, allowList []string) any {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || !urlAllowed(rawURL, allowList) {
		return urlRefusal
	}

	// Repository URLs are answered from the README, which reads far
	// better than a scraped repo page.
	if handle, repo, ok := fetch.ParseRepoURL(rawURL); ok && s.cfg.Projects != nil {
		if readme, err := s.cfg.Projects.Readme(ctx, handle, repo); err == nil {
			return truncate(readme, readmeMaxLen)
		}
	}

	if s.cfg.Pages == nil {
		return "Webpage fetching is not available right now."
	}
	summary, err := s.cfg.Pages.Extract(ctx, rawURL)
	if err != nil {
		s.logger.Warn("page fetch failed", "url", rawURL, "error", err)
		return fmt.Sprintf("The page at %s could not be fetched right now.", rawURL)
	}
	return summary
}

// urlAllowed reports whether url matches an allow-list entry exactly or by
// substring in either direction.
func urlAllowed(url string, allowList []string) bool {
	for _, entry := range allowList {
		if entry == "" {
			continue
		}
		if url == entry || strings.Contains(url, entry) || strings.Contains(entry, url) {
			return true
		}
	}
	return false
}

func decodeArgs(input any, out any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
