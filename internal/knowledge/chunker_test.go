package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_ShortTextSingleChunk(t *testing.T) {
	c := NewChunker(2000, 400)

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain sentence", "The quick brown fox.", []string{"The quick brown fox."}},
		{"surrounding whitespace trimmed", "  hello world  \n", []string{"hello world"}},
		{"exactly window size", strings.Repeat("a", 2000), []string{strings.Repeat("a", 2000)}},
		{"empty", "", nil},
		{"whitespace only", "   \n\t  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Split(tt.in))
		})
	}
}

func TestChunker_LongTextOverlaps(t *testing.T) {
	c := NewChunker(2000, 400)

	// 3,000 characters of sentence-shaped text.
	sentence := "The committee reviewed the proposal and found it satisfactory. "
	text := strings.Repeat(sentence, 3000/len(sentence)+1)
	text = text[:3000]

	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1, "3,000 chars must produce multiple chunks")

	for i, chunk := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(chunk), "chunk %d must not be empty", i)
		assert.LessOrEqual(t, len([]rune(chunk)), 2000+boundaryRadius, "chunk %d exceeds window plus snap radius", i)
	}

	// Adjacent chunks share overlapping text: the head of each following
	// chunk must appear inside the preceding one.
	for i := 1; i < len(chunks); i++ {
		head := chunks[i]
		if len(head) > 100 {
			head = head[:100]
		}
		assert.Contains(t, chunks[i-1], head,
			"chunk %d should start inside the overlap of chunk %d", i, i-1)
	}
}

func TestChunker_SnapsToSentenceBoundary(t *testing.T) {
	c := NewChunker(500, 100)

	// Sentences of 50 chars each; a cut at 500 lands mid-sentence, and a
	// terminator exists within the snap radius.
	sentence := strings.Repeat("x", 48) + ". "
	text := strings.Repeat(sentence, 30)

	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(chunk, "."),
			"chunk %d should end at a sentence boundary, got %q", i, chunk[len(chunk)-10:])
	}
}

func TestChunker_Deterministic(t *testing.T) {
	c := NewChunker(2000, 400)
	text := strings.Repeat("Some sentences repeat themselves endlessly. ", 200)

	first := c.Split(text)
	for range 5 {
		assert.Equal(t, first, c.Split(text), "Split must be deterministic")
	}
}

func TestChunker_CoversWholeText(t *testing.T) {
	c := NewChunker(800, 200)
	sentence := "Every line of the source text must survive chunking somewhere. "
	text := strings.TrimSpace(strings.Repeat(sentence, 60))

	chunks := c.Split(text)
	require.NotEmpty(t, chunks)

	// First chunk starts the text, last chunk ends it, and every chunk is a
	// substring: together with the overlap property this means no content is
	// dropped between windows.
	assert.True(t, strings.HasPrefix(text, chunks[0]))
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
	for i, chunk := range chunks {
		assert.Contains(t, text, chunk, "chunk %d is not a substring of the input", i)
	}
}

func TestNewChunker_DefaultsOnBadInput(t *testing.T) {
	c := NewChunker(0, -5)
	text := strings.Repeat("Fallback configuration still chunks text. ", 100)
	assert.NotEmpty(t, c.Split(text))
}
