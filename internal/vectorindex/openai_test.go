package vectorindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lazypower/engram/internal/apperr"
)

func TestOpenAICompatibleEmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization header = %q, want Bearer test-key", r.Header.Get("Authorization"))
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp := embeddingsResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float64{0.1, 0.2, 0.3}, Index: i})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOpenAICompatibleEmbedder(srv.URL, "test-key", "test-model", 3)
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 3 {
		t.Fatalf("vecs = %+v, want 2 vectors of dim 3", vecs)
	}
}

func TestOpenAICompatibleDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingsResponse{Data: []struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}{{Embedding: []float64{0.1, 0.2}, Index: 0}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOpenAICompatibleEmbedder(srv.URL, "", "test-model", 3)
	_, err := e.Embed(context.Background(), "a")
	if err == nil {
		t.Fatal("Embed with dimension mismatch = nil error, want error")
	}
	if !apperr.Is(err, apperr.Dependency) {
		t.Errorf("error kind = %v, want Dependency", err)
	}
}

func TestOpenAICompatibleServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewOpenAICompatibleEmbedder(srv.URL, "", "test-model", 0)
	_, err := e.Embed(context.Background(), "a")
	if err == nil {
		t.Fatal("Embed on server error = nil error, want error")
	}
}
