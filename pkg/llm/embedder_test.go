package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/seogap/pkg/llm"
)

type fakeEmbeddingClient struct {
	vectors [][]float32
	err     error
	calls   int
	inputs  []string
}

func (c *fakeEmbeddingClient) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.inputs = append(c.inputs, texts...)
	return c.vectors, c.err
}

func TestEmbed(t *testing.T) {
	client := &fakeEmbeddingClient{vectors: [][]float32{{0.1, 0.2, 0.3}}}
	emb := llm.NewEmbedder(client, llm.EmbedderConfig{})

	vec, err := emb.Embed(context.Background(), "running shoes")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, []string{"running shoes"}, client.inputs)
}

func TestEmbedTruncatesInput(t *testing.T) {
	client := &fakeEmbeddingClient{vectors: [][]float32{{1}}}

	emb := llm.NewEmbedder(client, llm.EmbedderConfig{})
	_, err := emb.Embed(context.Background(), strings.Repeat("ş", llm.DefaultMaxChars+500))
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)
	assert.Equal(t, llm.DefaultMaxChars, utf8.RuneCountInString(client.inputs[0]))

	small := llm.NewEmbedder(client, llm.EmbedderConfig{MaxChars: 10})
	_, err = small.Embed(context.Background(), "abcdefghijklmnop")
	require.NoError(t, err)
	assert.Equal(t, "abcdefghij", client.inputs[1])
}

func TestEmbedCollapsesWhitespace(t *testing.T) {
	client := &fakeEmbeddingClient{vectors: [][]float32{{1}}}

	emb := llm.NewEmbedder(client, llm.EmbedderConfig{MaxChars: 9})
	_, err := emb.Embed(context.Background(), "  running\n\n  shoes  guide ")
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "running s", client.inputs[0])
}

func TestEmbedEmptyTextSkipsProvider(t *testing.T) {
	client := &fakeEmbeddingClient{vectors: [][]float32{{1}}}
	emb := llm.NewEmbedder(client, llm.EmbedderConfig{})

	for _, text := range []string{"", "   \n\t"} {
		_, err := emb.Embed(context.Background(), text)
		assert.ErrorIs(t, err, llm.ErrEmptyText)
	}
	assert.Zero(t, client.calls)
}

func TestEmbedErrors(t *testing.T) {
	providerErr := errors.New("quota exceeded")

	tests := []struct {
		name   string
		client *fakeEmbeddingClient
		want   error
	}{
		{"provider error", &fakeEmbeddingClient{err: providerErr}, providerErr},
		{"no vectors", &fakeEmbeddingClient{}, llm.ErrNoEmbedding},
		{"empty vector", &fakeEmbeddingClient{vectors: [][]float32{{}}}, llm.ErrNoEmbedding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := llm.NewEmbedder(tt.client, llm.EmbedderConfig{}).Embed(context.Background(), "text")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
