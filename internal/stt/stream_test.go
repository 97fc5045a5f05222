// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     stt
// Description: Tests for the streaming fallback engine
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// newStreamServer runs handler for each websocket connection and
// returns a client pointed at it
func newStreamServer(t *testing.T, handler func(*websocket.Conn)) *StreamWS {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return NewStreamWS(url, Config{Language: "zh"})
}

// drainUntilEnd consumes client messages until the end marker
func drainUntilEnd(conn *websocket.Conn) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt == websocket.TextMessage && strings.Contains(string(data), `"end"`) {
			return
		}
	}
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, make([]byte, 64*1024), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestStreamAssemblesSegments(t *testing.T) {
	s := newStreamServer(t, func(conn *websocket.Conn) {
		drainUntilEnd(conn)
		conn.WriteJSON(streamMessage{Type: "segment", Text: "会议"})
		conn.WriteJSON(streamMessage{Type: "segment", Text: "记录"})
		conn.WriteJSON(streamMessage{Type: "final"})
	})

	res, err := s.TranscribeFile(context.Background(), writeArtifact(t))
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if res.Text != "会议 记录" {
		t.Errorf("Text = %q, want %q", res.Text, "会议 记录")
	}
	if res.Partial {
		t.Error("complete result marked partial")
	}
}

func TestStreamFinalTextWins(t *testing.T) {
	s := newStreamServer(t, func(conn *websocket.Conn) {
		drainUntilEnd(conn)
		conn.WriteJSON(streamMessage{Type: "segment", Text: "draft"})
		conn.WriteJSON(streamMessage{Type: "final", Text: "endgültiger Text"})
	})

	res, err := s.TranscribeFile(context.Background(), writeArtifact(t))
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if res.Text != "endgültiger Text" {
		t.Errorf("Text = %q, want final text", res.Text)
	}
}

func TestStreamCutoffReturnsPartial(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	s := newStreamServer(t, func(conn *websocket.Conn) {
		drainUntilEnd(conn)
		conn.WriteJSON(streamMessage{Type: "segment", Text: "angefangen"})
		// Never send final
		<-block
	})
	s.cutoff = 500 * time.Millisecond

	res, err := s.TranscribeFile(context.Background(), writeArtifact(t))
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if !res.Partial {
		t.Error("cutoff result not marked partial")
	}
	if res.Text != "angefangen" {
		t.Errorf("Text = %q, want accumulated partial", res.Text)
	}
}

func TestStreamServerError(t *testing.T) {
	s := newStreamServer(t, func(conn *websocket.Conn) {
		drainUntilEnd(conn)
		conn.WriteJSON(streamMessage{Type: "error", Error: "kein Modell geladen"})
	})

	_, err := s.TranscribeFile(context.Background(), writeArtifact(t))
	if err == nil || !strings.Contains(err.Error(), "kein Modell geladen") {
		t.Fatalf("error = %v, want server error", err)
	}
}

func TestStreamCancellation(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	s := newStreamServer(t, func(conn *websocket.Conn) {
		drainUntilEnd(conn)
		<-block
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := s.TranscribeFile(ctx, writeArtifact(t))
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestStreamNotReadyWithoutURL(t *testing.T) {
	s := NewStreamWS("", Config{})
	if s.IsReady() {
		t.Error("client without URL reports ready")
	}
}
