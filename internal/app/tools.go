package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/arlo-ai/arlo/internal/chat"
)

// registerTools declares the chat tools so the model sees their schemas.
// Completions run with ReturnToolRequests, so these handlers never execute;
// the chat service dispatches requests itself with tenant scope attached.
func registerTools(g *genkit.Genkit) {
	_ = genkit.DefineTool(
		g,
		chat.ToolFetchProjects,
		"List the site owner's most recently updated public GitHub repositories.",
		func(*ai.ToolContext, chat.ProjectsArgs) (string, error) {
			return "", nil
		},
	)

	_ = genkit.DefineTool(
		g,
		chat.ToolFetchURL,
		"Fetch and summarize the content of one of the available URL sources.",
		func(*ai.ToolContext, chat.URLArgs) (string, error) {
			return "", nil
		},
	)
}
