// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     llm
// Description: Generation engine interface
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package llm

import (
	"context"
)

// Engine produces rewritten text from a prompt pair
type Engine interface {
	// Generate runs one completion. The context carries cancellation
	// from the session; implementations must abort on it.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// IsReady reports whether the engine can generate right now
	IsReady(ctx context.Context) bool
}

const (
	// DefaultMaxTokens bounds one rewrite completion
	DefaultMaxTokens = 2048

	// DefaultTemperature keeps rewrites close to the input
	DefaultTemperature = 0.3
)
