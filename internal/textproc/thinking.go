// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     textproc
// Description: Removal of model reasoning tags from generated text
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package textproc

import (
	"regexp"
	"strings"
)

// thinkTagNames are the reasoning tag names emitted by various local
// models. Closed pairs are removed wherever they appear; an unclosed
// opening tag swallows everything to the end of the text.
var thinkTagNames = []string{
	"think", "thinking", "thought",
	"reason", "reasoning",
	"reflect", "reflection",
	"inner_monologue", "scratchpad",
}

var (
	closedTagRes = func() []*regexp.Regexp {
		res := make([]*regexp.Regexp, 0, len(thinkTagNames))
		for _, tag := range thinkTagNames {
			res = append(res, regexp.MustCompile(`(?s)<`+tag+`>.*?</`+tag+`>`))
		}
		return res
	}()

	unclosedTagRe = regexp.MustCompile(`(?s)<(?:` + strings.Join(thinkTagNames, "|") + `)>.*$`)
)

// StripThinkingTags removes reasoning blocks from generated output
func StripThinkingTags(text string) string {
	result := text
	for _, re := range closedTagRes {
		result = re.ReplaceAllString(result, "")
	}
	result = unclosedTagRe.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}
