package embed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlo-ai/arlo/internal/embed"
	"github.com/arlo-ai/arlo/internal/knowledge"
	"github.com/arlo-ai/arlo/internal/log"
	"github.com/arlo-ai/arlo/internal/testutil"
)

func TestClient_NotConfigured(t *testing.T) {
	client := embed.New(nil, log.NewNop())

	// No provider: fail before any call is attempted.
	_, err := client.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, embed.ErrNotConfigured)

	_, err = client.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, embed.ErrNotConfigured)
}

func TestClient_Embed(t *testing.T) {
	fake := &testutil.FakeEmbedder{
		Vectors: map[string][]float32{"hello": {1, 0, 0}},
	}
	client := embed.New(fake, log.NewNop())

	vector, err := client.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vector, knowledge.VectorDimension)
	assert.Equal(t, float32(1), vector[0])
	assert.Equal(t, 1, fake.CallCount())
}

func TestClient_EmbedBatchPreservesOrder(t *testing.T) {
	fake := &testutil.FakeEmbedder{
		Vectors: map[string][]float32{
			"first":  {1, 0, 0},
			"second": {0, 1, 0},
			"third":  {0, 0, 1},
		},
	}
	client := embed.New(fake, log.NewNop())

	vectors, err := client.EmbedBatch(context.Background(), []string{"first", "second", "third"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(1), vectors[1][1])
	assert.Equal(t, float32(1), vectors[2][2])

	// All three texts went out in a single provider call.
	assert.Equal(t, 1, fake.CallCount())
}

func TestClient_EmbedBatchEmptyInput(t *testing.T) {
	client := embed.New(&testutil.FakeEmbedder{}, log.NewNop())

	vectors, err := client.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestClient_ProviderFailure(t *testing.T) {
	providerErr := errors.New("quota exhausted")
	client := embed.New(&testutil.FakeEmbedder{Err: providerErr}, log.NewNop())

	_, err := client.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, providerErr)
}
