// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     textproc
// Description: Deterministic transcript cleanup (fillers, whitespace)
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package textproc

import (
	"regexp"
	"strings"
)

// Language selects the filler tables for cleanup
type Language string

const (
	LangZH Language = "zh"
	LangEN Language = "en"
	LangDE Language = "de"
)

// ParseLanguage maps a configuration string to a Language, defaulting
// to Chinese which is what the speech models are tuned for
func ParseLanguage(s string) Language {
	switch strings.ToLower(s) {
	case "en", "english":
		return LangEN
	case "de", "german", "deutsch":
		return LangDE
	default:
		return LangZH
	}
}

// fillerTable holds the per-language filler vocabulary. Pure fillers
// are safe to remove anywhere; ambiguous ones also appear in
// legitimate sentences and are only removed at clause boundaries
// (string start or right after sentence punctuation).
type fillerTable struct {
	pure      []string
	ambiguous []string

	// wordBounded languages need boundary guards so "um" does not eat
	// the middle of "umbrella"; Chinese has no word boundaries
	wordBounded bool
}

var fillerTables = map[Language]fillerTable{
	// Longer variants first so "嗯嗯" goes as a unit before the single
	// "嗯" pass sees it
	LangZH: {
		pure: []string{
			"嗯嗯", "啊啊", "哦哦", "呃呃",
			"嗯", "啊", "哦", "呃",
			"那个啥", "就是那个", "怎么说呢", "怎么说",
			"你知道吗", "我跟你说", "那什么",
		},
		ambiguous: []string{
			"这个", "那个", "就是", "然后", "的话",
			"呀", "呢", "嘛", "哈",
		},
	},
	LangEN: {
		pure: []string{
			"umm", "uhh", "um", "uh", "erm", "er", "hmm",
			"you know", "i mean", "sort of", "kind of",
		},
		ambiguous: []string{
			"like", "so", "well", "actually", "basically", "right",
		},
		wordBounded: true,
	},
	LangDE: {
		pure: []string{
			"ähm", "äh", "öhm", "hm",
			"sozusagen", "gewissermaßen", "quasi",
		},
		ambiguous: []string{
			"also", "halt", "eben", "naja", "ja",
		},
		wordBounded: true,
	},
}

const clauseBoundary = `[，,。.！!？?\s]`

type languagePatterns struct {
	pureLiterals []string
	pureRe       *regexp.Regexp
	atStart      []*regexp.Regexp
	afterPunc    []*regexp.Regexp
}

var languageRes = func() map[Language]languagePatterns {
	out := make(map[Language]languagePatterns, len(fillerTables))
	for lang, table := range fillerTables {
		var p languagePatterns
		if table.wordBounded {
			quoted := make([]string, len(table.pure))
			for i, w := range table.pure {
				quoted[i] = regexp.QuoteMeta(w)
			}
			// \b is ASCII-only in Go regexps: it treats the seam between
			// "ä" and "h" as a word boundary, so "hm" would eat the middle
			// of "ähm". Bound with explicit letter/digit classes instead.
			p.pureRe = regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])(?:` + strings.Join(quoted, "|") + `)($|[^\p{L}\p{N}])`)
		} else {
			p.pureLiterals = table.pure
		}

		for _, w := range table.ambiguous {
			q := regexp.QuoteMeta(w)
			prefix := ""
			if table.wordBounded {
				prefix = "(?i)"
			}
			p.atStart = append(p.atStart,
				regexp.MustCompile(prefix+`^\s*(`+q+`)(`+clauseBoundary+`|$)`))
			p.afterPunc = append(p.afterPunc,
				regexp.MustCompile(prefix+`([，,。.！!？?])\s*(`+q+`)(`+clauseBoundary+`|$)`))
		}
		out[lang] = p
	}
	return out
}()

var whitespaceRe = regexp.MustCompile(`\s+`)

// RemoveFillers strips filler words for the given language from a raw
// transcript
func RemoveFillers(text string, lang Language) string {
	p, ok := languageRes[lang]
	if !ok {
		p = languageRes[LangZH]
	}

	result := text
	for _, w := range p.pureLiterals {
		result = strings.ReplaceAll(result, w, "")
	}
	if p.pureRe != nil {
		// Each match consumes its trailing boundary character, which
		// hides a directly following filler from the same pass. Repeat
		// until nothing changes.
		for {
			next := p.pureRe.ReplaceAllString(result, "${1}${2}")
			if next == result {
				break
			}
			result = next
		}
	}
	for i := range p.atStart {
		result = p.atStart[i].ReplaceAllString(result, "${2}")
		result = p.afterPunc[i].ReplaceAllString(result, "${1}${3}")
	}
	return result
}

// NormalizeWhitespace collapses whitespace runs to a single space
func NormalizeWhitespace(text string) string {
	return whitespaceRe.ReplaceAllString(text, " ")
}

// BasicClean is the deterministic cleanup path. It never fails and is
// also the fallback when generation is unavailable. The dictionary may
// be nil.
func BasicClean(text string, lang Language, dict *Dictionary) string {
	result := RemoveFillers(text, lang)
	if dict != nil {
		result = dict.Apply(result)
	}
	result = NormalizeWhitespace(result)
	return strings.TrimSpace(result)
}
