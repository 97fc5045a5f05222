// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     textproc
// Description: Tests for transcript cleanup
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package textproc

import (
	"testing"
)

func TestRemoveFillersPure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"leading and repeated filler", "嗯 这个 会议 记录 嗯", "会议 记录"},
		{"doubled sounds", "嗯嗯好的呃呃我来", "好的我来"},
		{"phrase fillers", "那个啥我们开始吧", "我们开始吧"},
		{"no fillers", "明天上午十点开会", "明天上午十点开会"},
		{"only fillers", "嗯嗯啊啊", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BasicClean(tt.input, LangZH, nil); got != tt.want {
				t.Errorf("BasicClean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAmbiguousFillersOnlyAtBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"sentence-initial removed", "然后，我们讨论预算", "，我们讨论预算"},
		{"after punctuation removed", "好的。然后 我们讨论预算", "好的。 我们讨论预算"},
		{"mid-phrase kept", "我说的就是重点", "我说的就是重点"},
		{"demonstrative kept mid-phrase", "请看这个方案的细节", "请看这个方案的细节"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemoveFillers(tt.input, LangZH); got != tt.want {
				t.Errorf("RemoveFillers(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEnglishFillersWordBounded(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"pure fillers removed", "um the meeting uh starts at ten", "the meeting starts at ten"},
		{"word interior untouched", "the umbrella is under the sofa", "the umbrella is under the sofa"},
		{"phrase filler removed", "we should you know ship it", "we should ship it"},
		{"ambiguous at start removed", "like, we should ship it", ", we should ship it"},
		{"ambiguous mid-sentence kept", "I like this plan", "I like this plan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BasicClean(tt.input, LangEN, nil); got != tt.want {
				t.Errorf("BasicClean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGermanFillers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Umlauted fillers are whole words even though ä is outside the
		// ASCII range, and "hm" must not bite into "ähm" or "Rahmen"
		{"umlauted fillers removed", "ähm wir treffen uns äh morgen", "wir treffen uns morgen"},
		{"filler interior untouched", "der Rahmen steht fest", "der Rahmen steht fest"},
		{"consecutive fillers", "ähm äh wir fangen an", "wir fangen an"},
		{"capitalized filler", "Ähm morgen passt gut", "morgen passt gut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BasicClean(tt.input, LangDE, nil); got != tt.want {
				t.Errorf("BasicClean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	// "halt" only falls at clause boundaries
	kept := RemoveFillers("das ist ein Haltepunkt", LangDE)
	if kept != "das ist ein Haltepunkt" {
		t.Errorf("RemoveFillers = %q, want input unchanged", kept)
	}
}

func TestBasicCleanIdempotent(t *testing.T) {
	inputs := []string{
		"嗯 这个 会议 记录 嗯",
		"那个啥我们开始吧",
		"明天上午十点开会",
		"  spaced   out\ttext  ",
	}

	for _, in := range inputs {
		once := BasicClean(in, LangZH, nil)
		twice := BasicClean(once, LangZH, nil)
		if once != twice {
			t.Errorf("BasicClean not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := NormalizeWhitespace("a  b\t\tc\n\nd"); got != "a b c d" {
		t.Errorf("NormalizeWhitespace = %q, want %q", got, "a b c d")
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input string
		want  Language
	}{
		{"zh", LangZH},
		{"en", LangEN},
		{"English", LangEN},
		{"de", LangDE},
		{"deutsch", LangDE},
		{"", LangZH},
		{"fr", LangZH},
	}
	for _, tt := range tests {
		if got := ParseLanguage(tt.input); got != tt.want {
			t.Errorf("ParseLanguage(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestBasicCleanAppliesDictionary(t *testing.T) {
	dict := newTestDictionary(t)
	if err := dict.AddEntry("cicero", "Cicero"); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	if got := BasicClean("嗯 cicero 项目", LangZH, dict); got != "Cicero 项目" {
		t.Errorf("BasicClean = %q, want %q", got, "Cicero 项目")
	}
}
