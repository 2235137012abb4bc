package knowledge

import (
	"strings"
	"unicode"
)

// boundaryRadius is how far (in runes) around a proposed cut the chunker
// searches for a sentence terminator before giving up and cutting mid-text.
const boundaryRadius = 100

// Chunker splits raw text into overlapping, boundary-aware segments.
//
// Splitting is deterministic and idempotent: identical input always yields
// identical chunk boundaries. Output chunks are trimmed and never empty.
type Chunker struct {
	size    int // window size in runes
	overlap int // overlap between adjacent windows in runes
}

// NewChunker creates a Chunker. size must be positive and overlap must be
// smaller than size; config validation guarantees this for production values,
// and out-of-range inputs fall back to the defaults.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 2000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split splits text into chunks. Text no longer than the window is returned
// as a single chunk. Longer text is cut by a sliding window that snaps each
// cut to a nearby sentence boundary when one exists.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	var chunks []string
	step := c.size - c.overlap

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else if snapped := snapToSentence(runes, start, end); snapped > start {
			end = snapped
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// snapToSentence searches a ±boundaryRadius neighborhood around the proposed
// cut for a sentence terminator followed by whitespace and returns the
// position just after it. Scanning runs from the far edge backwards so the
// snapped cut keeps as much of the window as possible. Returns 0 when no
// boundary qualifies.
func snapToSentence(runes []rune, start, proposed int) int {
	hi := proposed + boundaryRadius
	if hi > len(runes)-1 {
		hi = len(runes) - 1
	}
	lo := proposed - boundaryRadius
	if lo <= start {
		lo = start + 1
	}

	for p := hi; p >= lo; p-- {
		if !isSentenceTerminator(runes[p]) {
			continue
		}
		if p+1 >= len(runes) || unicode.IsSpace(runes[p+1]) {
			return p + 1
		}
	}
	return 0
}

func isSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
