// Package chat runs the query-time pipeline: history trimming, query
// rewriting, vector retrieval, persona prompt assembly, a single-round
// tool loop and response post-processing.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/arlo-ai/arlo/internal/fetch"
	"github.com/arlo-ai/arlo/internal/knowledge"
	"github.com/arlo-ai/arlo/internal/llm"
	"github.com/arlo-ai/arlo/internal/log"
	"github.com/arlo-ai/arlo/internal/persona"
	"github.com/arlo-ai/arlo/internal/retrieval"
	"github.com/arlo-ai/arlo/internal/session"
)

// ErrEmptyMessage indicates the visitor sent a blank message.
var ErrEmptyMessage = errors.New("message is empty")

const (
	// DefaultHistoryWindow is how many recent turns feed a completion.
	DefaultHistoryWindow = 8

	// fallbackAnswer is returned when generation fails. Query-time
	// failures degrade the answer, they never surface as errors.
	fallbackAnswer = "I am sorry, I ran into a problem putting an answer together just now. Please try asking again in a moment."
)

// Retriever finds relevant knowledge chunks for a query.
type Retriever interface {
	Retrieve(ctx context.Context, tenantID, query string, opts ...retrieval.Option) ([]knowledge.MatchedChunk, error)
}

// QueryRewriter turns a follow-up message into a standalone search query.
type QueryRewriter interface {
	Rewrite(ctx context.Context, message string, history []session.ConversationTurn) string
}

// ProjectLister serves the fetch_latest_projects tool.
type ProjectLister interface {
	ListRecent(ctx context.Context, profile string, limit int) []fetch.RepoSummary
	Readme(ctx context.Context, profile, repo string) (string, error)
}

// PageSummarizer serves the fetch_url_content tool.
type PageSummarizer interface {
	Extract(ctx context.Context, url string) (*fetch.PageSummary, error)
}

// Request is one visitor message in one session.
type Request struct {
	TenantID  string
	SessionID string
	Message   string
}

// Answer is the pipeline's output for one Request.
type Answer struct {
	Text    string                      `json:"text"`
	Sources []knowledge.SourceReference `json:"sources,omitempty"`
}

// Config wires a Service. Completer and Retriever are required; everything
// else degrades gracefully when absent.
type Config struct {
	Completer   llm.Completer
	Retriever   Retriever
	Rewriter    QueryRewriter
	Personas    persona.Store
	Transcripts session.TranscriptStore
	Documents   knowledge.DocumentStore
	Projects    ProjectLister
	Pages       PageSummarizer

	// HistoryWindow caps the turns loaded per request. Zero gets
	// DefaultHistoryWindow.
	HistoryWindow int

	// LooseThreshold is the retrieval threshold used when the query was
	// rewritten; the rewrite shifts wording enough that the strict
	// default misses relevant chunks.
	LooseThreshold float32

	// ToolRefs are the registered chat tools offered to the model.
	// Dispatch happens in this package, not in the provider.
	ToolRefs []ai.ToolRef

	Logger log.Logger

	// Now overrides the clock, for deterministic prompts in tests.
	Now func() time.Time
}

// Service answers visitor messages for all tenants. It holds no per-request
// state; concurrent requests are independent.
type Service struct {
	cfg    Config
	logger log.Logger
	now    func() time.Time
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Completer == nil {
		return nil, errors.New("chat: completer is required")
	}
	if cfg.Retriever == nil {
		return nil, errors.New("chat: retriever is required")
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{cfg: cfg, logger: logger, now: now}, nil
}

// Answer runs the full query-time pipeline for one message.
func (s *Service) Answer(ctx context.Context, req Request) (*Answer, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	history := s.loadHistory(ctx, req.SessionID)
	personaCfg := s.loadPersona(ctx, req.TenantID)

	// Rewriting resolves pronouns and ellipsis against recent turns so
	// retrieval sees a standalone query.
	query := message
	if s.cfg.Rewriter != nil {
		query = s.cfg.Rewriter.Rewrite(ctx, message, history)
	}

	var opts []retrieval.Option
	if query != message {
		opts = append(opts, retrieval.WithThreshold(s.cfg.LooseThreshold))
	}
	matches, err := s.cfg.Retriever.Retrieve(ctx, req.TenantID, query, opts...)
	if err != nil {
		s.logger.Warn("retrieval failed, answering without context", "tenant_id", req.TenantID, "error", err)
		matches = nil
	}

	allowList := s.allowedURLs(ctx, req.TenantID, personaCfg)
	toolsEnabled := len(s.cfg.ToolRefs) > 0 &&
		(personaCfg.Links.GitHub != "" || len(allowList) > 0)

	systemPrompt := persona.BuildPrompt(personaCfg, s.now())
	messages := append(historyMessages(history),
		ai.NewUserMessage(ai.NewTextPart(userPrompt(message, matches, allowList))))

	first := llm.Request{System: systemPrompt, Messages: messages}
	if toolsEnabled {
		first.Tools = s.cfg.ToolRefs
		first.ReturnToolRequests = true
	}

	resp, err := s.cfg.Completer.Complete(ctx, first)
	if err != nil {
		s.logger.Error("completion failed", "tenant_id", req.TenantID, "error", err)
		return s.finish(fallbackAnswer, matches), nil
	}

	answer := resp.Text
	if len(resp.ToolRequests) > 0 {
		answer = s.answerWithTools(ctx, systemPrompt, messages, resp, personaCfg, allowList)
	}
	if strings.TrimSpace(answer) == "" {
		answer = fallbackAnswer
	}
	return s.finish(answer, matches), nil
}

// answerWithTools executes the requested tools in order and issues the one
// permitted follow-up completion with tools disabled.
func (s *Service) answerWithTools(ctx context.Context, systemPrompt string, messages []*ai.Message, resp *llm.Response, personaCfg persona.Config, allowList []string) string {
	parts := make([]*ai.Part, 0, len(resp.ToolRequests))
	for _, toolReq := range resp.ToolRequests {
		output := s.runTool(ctx, toolReq, personaCfg, allowList)
		parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   toolReq.Name,
			Ref:    toolReq.Ref,
			Output: output,
		}))
	}

	followUp := append(messages, resp.Message, ai.NewMessage(ai.RoleTool, nil, parts...))
	second, err := s.cfg.Completer.Complete(ctx, llm.Request{
		System:   systemPrompt,
		Messages: followUp,
	})
	if err != nil {
		s.logger.Error("follow-up completion failed", "error", err)
		return fallbackAnswer
	}
	return second.Text
}

func (s *Service) finish(text string, matches []knowledge.MatchedChunk) *Answer {
	return &Answer{
		Text:    ApplyHouseStyle(text),
		Sources: SourceReferences(matches),
	}
}

func (s *Service) loadHistory(ctx context.Context, sessionID string) []session.ConversationTurn {
	if s.cfg.Transcripts == nil || sessionID == "" {
		return nil
	}
	history, err := s.cfg.Transcripts.LastTurns(ctx, sessionID, s.cfg.HistoryWindow)
	if err != nil {
		s.logger.Warn("failed to load transcript, answering without history", "session_id", sessionID, "error", err)
		return nil
	}
	return history
}

func (s *Service) loadPersona(ctx context.Context, tenantID string) persona.Config {
	if s.cfg.Personas == nil {
		return persona.Config{}.Resolve()
	}
	cfg, err := s.cfg.Personas.GetPersona(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, persona.ErrPersonaNotFound) {
			s.logger.Warn("failed to load persona, using defaults", "tenant_id", tenantID, "error", err)
		}
		return persona.Config{}.Resolve()
	}
	return cfg.Resolve()
}

// allowedURLs precomputes the fetch_url_content allow-list: the tenant's
// URL-sourced documents plus the persona's configured links.
func (s *Service) allowedURLs(ctx context.Context, tenantID string, personaCfg persona.Config) []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(u string) {
		if u = strings.TrimSpace(u); u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	if s.cfg.Documents != nil {
		docs, err := s.cfg.Documents.ListDocuments(ctx, tenantID)
		if err != nil {
			s.logger.Warn("failed to list documents for URL sources", "tenant_id", tenantID, "error", err)
		}
		for _, doc := range docs {
			if doc.SourceType == knowledge.SourceURL {
				add(doc.SourceURL)
			}
		}
	}

	add(personaCfg.Links.Website)
	add(personaCfg.Links.GitHub)
	add(personaCfg.Links.LinkedIn)
	add(personaCfg.Links.Twitter)
	return urls
}

func historyMessages(history []session.ConversationTurn) []*ai.Message {
	messages := make([]*ai.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case session.RoleAssistant:
			messages = append(messages, ai.NewModelTextMessage(turn.Content))
		default:
			messages = append(messages, ai.NewUserTextMessage(turn.Content))
		}
	}
	return messages
}

// userPrompt assembles the final user message: labeled context blocks
// followed by the visitor's original question.
func userPrompt(message string, matches []knowledge.MatchedChunk, urls []string) string {
	var b strings.Builder

	if len(matches) == 0 {
		b.WriteString("No relevant knowledge-base context was found for this question. Say so honestly if you cannot answer from the conversation alone.\n")
	} else {
		b.WriteString("Knowledge-base context:\n")
		for i, m := range matches {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, m.Content)
		}
	}

	if len(urls) > 0 {
		b.WriteString("\nAvailable URL sources:\n")
		for _, u := range urls {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}

	b.WriteString("\nVisitor question: ")
	b.WriteString(message)
	return b.String()
}
