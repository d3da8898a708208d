package generate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-image-service/internal/models"
)

func TestHTTPGeneratorCompleted(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params models.GenerationParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Errorf("decode params: %v", err)
		}
		if params.Prompt != "cat" {
			t.Errorf("expected prompt cat, got %s", params.Prompt)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "completed",
			"image_data": base64.StdEncoding.EncodeToString(png),
			"metadata":   map[string]any{"model": "flux"},
		})
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, time.Second)
	result, err := gen.Generate(context.Background(), simParams(42), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(result.ImagePNG) != string(png) {
		t.Fatal("image bytes not round-tripped")
	}
	if result.Metadata["model"] != "flux" {
		t.Fatalf("metadata not decoded: %v", result.Metadata)
	}
}

func TestHTTPGeneratorFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "failed", "error": "OOM"})
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, time.Second)
	_, err := gen.Generate(context.Background(), simParams(42), nil)
	if err == nil || err.Error() != "OOM" {
		t.Fatalf("expected OOM error, got %v", err)
	}
}

func TestHTTPGeneratorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, time.Second)
	if _, err := gen.Generate(context.Background(), simParams(42), nil); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
