// Package testutil provides shared test doubles for arlo packages.
package testutil

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/arlo-ai/arlo/internal/knowledge"
)

// FakeEmbedder implements ai.Embedder with deterministic vectors.
//
// Texts registered in Vectors get their fixed embedding; any other text gets
// a deterministic pseudo-random unit vector derived from its hash, padded to
// knowledge.VectorDimension. Set Err to make every call fail.
type FakeEmbedder struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Err     error
	Calls   [][]string // input texts per Embed call
}

// Name implements ai.Embedder.
func (*FakeEmbedder) Name() string { return "fake-embedder" }

// Register implements ai.Embedder. No-op for tests.
func (*FakeEmbedder) Register(api.Registry) {}

// Embed implements ai.Embedder.
func (f *FakeEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	texts := make([]string, len(req.Input))
	embeddings := make([]*ai.Embedding, len(req.Input))
	for i, doc := range req.Input {
		text := ""
		if len(doc.Content) > 0 {
			text = doc.Content[0].Text
		}
		texts[i] = text
		embeddings[i] = &ai.Embedding{Embedding: f.vectorFor(text)}
	}
	f.Calls = append(f.Calls, texts)

	return &ai.EmbedResponse{Embeddings: embeddings}, nil
}

// CallCount returns the number of Embed invocations so far.
func (f *FakeEmbedder) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *FakeEmbedder) vectorFor(text string) []float32 {
	if v, ok := f.Vectors[text]; ok {
		return PadVector(v)
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()

	v := make([]float32, knowledge.VectorDimension)
	for i := range v {
		seed = seed*1664525 + 1013904223
		v[i] = float32(seed%1000)/1000 - 0.5
	}
	return v
}

// PadVector zero-pads a short vector to knowledge.VectorDimension.
// Lets tests describe similarity geometry in two or three components.
func PadVector(v []float32) []float32 {
	if len(v) >= knowledge.VectorDimension {
		return v[:knowledge.VectorDimension]
	}
	padded := make([]float32, knowledge.VectorDimension)
	copy(padded, v)
	return padded
}
