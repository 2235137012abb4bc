package chat

import (
	"strings"

	"github.com/arlo-ai/arlo/internal/knowledge"
)

// houseStyle rewrites characters the persona must never emit. Applied to
// every answer unconditionally; the model is told the rules but models
// drift.
var houseStyle = strings.NewReplacer(
	"—", ", ", // em dash
	"–", "-", // en dash
)

// ApplyHouseStyle applies the character substitutions to one answer.
func ApplyHouseStyle(text string) string {
	return houseStyle.Replace(text)
}

// SourceReferences builds the advisory source list from retrieval output.
// Sources accompany every answer whether or not the model cited them.
func SourceReferences(matches []knowledge.MatchedChunk) []knowledge.SourceReference {
	if len(matches) == 0 {
		return nil
	}
	refs := make([]knowledge.SourceReference, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, knowledge.NewSourceReference(m))
	}
	return refs
}
