// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     textproc
// Description: Transform pipeline from raw transcript to final text
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package textproc

import (
	"context"
	"strings"

	"github.com/msto63/cicero/pkg/core/logging"
)

// Generator produces rewritten text from a prompt pair. Implemented by
// the llm package clients.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options control one pipeline run
type Options struct {
	// Language selects the filler tables and base prompt
	Language Language

	// StylePrompt is appended to the system prompt when set
	StylePrompt string

	// ScreenContext is OCR text from the user's screen, correction
	// reference only
	ScreenContext string

	// RecentInputs is a short digest of recent history records,
	// vocabulary reference only
	RecentInputs string

	// UseGeneration selects the rewrite path. When false only the
	// deterministic cleanup runs.
	UseGeneration bool
}

// Pipeline turns raw transcripts into insertable text
type Pipeline struct {
	gen    Generator
	dict   *Dictionary
	logger *logging.Logger
}

// NewPipeline creates a pipeline. gen may be nil, which forces the
// deterministic path.
func NewPipeline(gen Generator, dict *Dictionary) *Pipeline {
	return &Pipeline{
		gen:    gen,
		dict:   dict,
		logger: logging.New("textproc"),
	}
}

// Process transforms a raw transcript. The generation path degrades to
// BasicClean on any generator error, so Process never fails outright.
// Context cancellation aborts the generator call; the caller checks for
// cancellation before using the result.
func (p *Pipeline) Process(ctx context.Context, text string, opts Options) string {
	if !opts.UseGeneration || p.gen == nil {
		return BasicClean(text, opts.Language, p.dict)
	}

	var rules string
	if p.dict != nil {
		rules = p.dict.ActiveRules()
	}

	system := BuildSystemPrompt(opts.Language, PromptContext{
		StylePrompt:   opts.StylePrompt,
		EditRules:     rules,
		ScreenContext: opts.ScreenContext,
		RecentInputs:  opts.RecentInputs,
	})
	user := BuildUserPrompt(text)

	result, err := p.gen.Generate(ctx, system, user)
	if err != nil {
		p.logger.Error("generation failed, falling back to basic clean", "error", err)
		return BasicClean(text, opts.Language, p.dict)
	}

	result = StripThinkingTags(result)
	if p.dict != nil {
		result = p.dict.Apply(result)
	}
	return strings.TrimSpace(NormalizeWhitespace(result))
}
