package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lazypower/engram/internal/apperr"
)

// OpenAICompatibleEmbedder talks to any embeddings endpoint that speaks the
// OpenAI request/response shape (OpenAI itself, or Ollama's compatibility
// endpoint), grounded on harunnryd-ranyaa's OpenAIProvider.
type OpenAICompatibleEmbedder struct {
	baseURL string
	apiKey  string
	model   string
	dims    int
	client  *http.Client
}

func NewOpenAICompatibleEmbedder(baseURL, apiKey, model string, dims int) *OpenAICompatibleEmbedder {
	return &OpenAICompatibleEmbedder{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		dims:    dims,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *OpenAICompatibleEmbedder) Dimensions() int { return e.dims }

func (e *OpenAICompatibleEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (e *OpenAICompatibleEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	const op = "vectorindex.EmbedBatch"

	body, err := json.Marshal(embeddingsRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, apperr.Wrap(apperr.Dependency, op, "marshal embeddings request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.Dependency, op, "build embeddings request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Dependency, op, "call embeddings endpoint", err).WithField("base_url", e.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.Dependency, op, fmt.Sprintf("embeddings endpoint returned status %d", resp.StatusCode)).
			WithField("base_url", e.baseURL)
	}

	var parsed embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.Dependency, op, "decode embeddings response", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, apperr.New(apperr.Dependency, op, "embeddings response count mismatch").
			WithField("want", len(texts)).WithField("got", len(parsed.Data))
	}

	out := make([][]float64, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, apperr.New(apperr.Dependency, op, "embeddings response index out of range").WithField("index", d.Index)
		}
		if e.dims > 0 && len(d.Embedding) != e.dims {
			return nil, apperr.New(apperr.Dependency, op, "embedding dimension mismatch").
				WithField("want", e.dims).WithField("got", len(d.Embedding))
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
