// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     llm
// Description: Tests for the Ollama client
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaGenerate(t *testing.T) {
	var gotReq ollamaChatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:   gotReq.Model,
			Message: ollamaMessage{Role: "assistant", Content: "整理后的文本\n"},
			Done:    true,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "qwen2.5:3b", TimeoutSeconds: 5})

	got, err := c.Generate(context.Background(), "SYSTEM", "USER")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "整理后的文本" {
		t.Errorf("result = %q", got)
	}
	if gotReq.Stream {
		t.Error("rewrite request must not stream")
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("messages = %v, want system + user", gotReq.Messages)
	}
	if gotReq.Options.NumPredict != DefaultMaxTokens {
		t.Errorf("num_predict = %d", gotReq.Options.NumPredict)
	}
}

func TestOllamaGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "missing", TimeoutSeconds: 5})
	if _, err := c.Generate(context.Background(), "", "USER"); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestOllamaIsReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.Write([]byte(`{"models":[{"name":"qwen2.5:3b"}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, TimeoutSeconds: 5})
	if !c.IsReady(context.Background()) {
		t.Error("running server not detected")
	}

	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 1 || models[0] != "qwen2.5:3b" {
		t.Errorf("models = %v", models)
	}

	srv.Close()
	if c.IsReady(context.Background()) {
		t.Error("stopped server reported ready")
	}
}
