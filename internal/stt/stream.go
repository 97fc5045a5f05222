// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     stt
// Description: Streaming transcription fallback over WebSocket
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package stt

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msto63/cicero/pkg/core/logging"
)

// DefaultStreamCutoff caps one streaming transcription. When the
// server has not finished by then the accumulated text is returned as
// a partial result instead of failing the session.
const DefaultStreamCutoff = 30 * time.Second

// streamMessage is the wire format of the streaming server
type streamMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// StreamWS is the fallback engine: it ships the WAV artifact to a
// streaming transcription server and collects segment messages. Used
// when the local whisper model is not ready yet.
type StreamWS struct {
	url      string
	language string
	cutoff   time.Duration
	logger   *logging.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewStreamWS creates a streaming client for the given ws:// URL
func NewStreamWS(url string, cfg Config) *StreamWS {
	return &StreamWS{
		url:      url,
		language: cfg.Language,
		cutoff:   DefaultStreamCutoff,
		logger:   logging.New("stt.stream"),
	}
}

// IsReady reports whether a server URL is configured
func (s *StreamWS) IsReady() bool {
	return s.url != ""
}

// TranscribeFile streams the artifact and assembles the transcript
// from segment messages. On the hard cutoff it returns what has
// accumulated with Partial set instead of an error.
func (s *StreamWS) TranscribeFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read artifact: %w", err)
	}

	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, s.cutoff)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(runCtx, s.url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
	}()

	// Close the connection when the context ends so blocked reads
	// return; gorilla reads have no context support
	go func() {
		<-runCtx.Done()
		conn.Close()
	}()

	if err := conn.WriteJSON(streamMessage{Type: "start", Text: s.language}); err != nil {
		return Result{}, fmt.Errorf("failed to send start: %w", err)
	}

	const chunkSize = 32 * 1024
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, data[off:end]); err != nil {
			return Result{}, fmt.Errorf("failed to send audio: %w", err)
		}
	}
	if err := conn.WriteJSON(streamMessage{Type: "end"}); err != nil {
		return Result{}, fmt.Errorf("failed to send end: %w", err)
	}

	var segments []string
	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if runCtx.Err() == context.DeadlineExceeded {
				// Hard cutoff: keep the partial transcript
				partial := strings.TrimSpace(strings.Join(segments, " "))
				s.logger.Warn("stream cutoff reached, returning partial",
					"chars", len(partial), "cutoff", s.cutoff)
				return Result{
					Text:     partial,
					Language: s.language,
					Partial:  true,
					Duration: float32(time.Since(start).Seconds()),
				}, nil
			}
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			return Result{}, fmt.Errorf("failed to read response: %w", err)
		}

		switch msg.Type {
		case "segment", "partial":
			if msg.Text != "" {
				segments = append(segments, msg.Text)
			}
		case "final":
			text := msg.Text
			if text == "" {
				text = strings.Join(segments, " ")
			}
			return Result{
				Text:     strings.TrimSpace(text),
				Language: s.language,
				Duration: float32(time.Since(start).Seconds()),
			}, nil
		case "error":
			return Result{}, fmt.Errorf("server error: %s", msg.Error)
		}
	}
}

// Close closes an in-flight connection
func (s *StreamWS) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}
