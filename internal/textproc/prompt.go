// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     textproc
// Description: Prompt construction for the rewrite step
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package textproc

import "strings"

const baseSystemPromptZH = `你是语音输入的后处理引擎。输入是语音识别的原始文本（口语），你要输出整理后的书面文字。

核心规则：
1. 删除所有口语填充词：嗯、啊、呃、哦、那个、就是、然后、的话、对吧、你知道吗、怎么说呢、我跟你说
2. 识别自我纠正：当说话人说"不对"、"不是"、"应该是"、"我是说"、"换句话说"时，只保留纠正后的内容，删除被纠正的部分
3. 去除重复：连续说两遍相同或相似的内容，只保留一次
4. 修正语音识别错误：根据上下文修正同音字、谐音错误
5. 结构化排版：
   - 当内容包含并列项目、步骤或要点时，使用编号列表（1. 2. 3.）
   - 每个要点独占一行
   - 段落之间用空行分隔
6. 标点符号：确保句号、逗号、问号等正确使用

输出要求：
- 只输出整理后的文本，不加任何解释、前缀或后缀
- 保持原意，不添加原文没有的内容
- 宁可精简也不要冗余，去掉所有不影响表意的废话
- 如果原文本身很短（一两句话），不要强行加编号`

const baseSystemPromptEN = `You are the post-processing engine for voice input. The input is raw speech-recognition text (spoken language); you output the cleaned written form.

Core rules:
1. Remove all spoken fillers: um, uh, you know, I mean, sort of, kind of
2. Apply self-corrections: when the speaker says "no wait", "I mean", "actually", "in other words", keep only the corrected content and drop the corrected-away part
3. Deduplicate: when the same or similar content is said twice in a row, keep it once
4. Fix recognition errors: correct homophones and near-misses from context
5. Structure: use a numbered list (1. 2. 3.) for enumerations, steps or bullet points, one point per line, blank lines between paragraphs
6. Punctuation: ensure periods, commas and question marks are used correctly

Output requirements:
- Output only the cleaned text, no explanation, prefix or suffix
- Preserve the meaning, add nothing that is not in the input
- Prefer concise over redundant
- Do not force numbering onto short inputs of one or two sentences`

const baseSystemPromptDE = `Du bist die Nachbearbeitung für Spracheingabe. Die Eingabe ist roher Text aus der Spracherkennung (gesprochene Sprache); du gibst die bereinigte Schriftform aus.

Kernregeln:
1. Entferne alle Füllwörter: äh, ähm, halt, sozusagen, quasi, also
2. Wende Selbstkorrekturen an: sagt der Sprecher "nein, warte", "ich meine", "beziehungsweise", behalte nur die korrigierte Fassung
3. Entferne Wiederholungen: gleicher oder ähnlicher Inhalt zweimal hintereinander wird nur einmal behalten
4. Korrigiere Erkennungsfehler anhand des Kontexts
5. Struktur: nummerierte Listen (1. 2. 3.) für Aufzählungen und Schritte, ein Punkt pro Zeile, Leerzeilen zwischen Absätzen
6. Zeichensetzung: Punkte, Kommata und Fragezeichen korrekt setzen

Ausgabe:
- Nur den bereinigten Text ausgeben, keine Erklärung, kein Präfix oder Suffix
- Die Bedeutung erhalten, nichts hinzufügen
- Lieber knapp als redundant
- Kurzen Eingaben von ein, zwei Sätzen keine Nummerierung aufzwingen`

// promptLabels are the block headers for the optional prompt sections,
// kept in the language of the base prompt
type promptLabels struct {
	style       string
	editRules   string
	screenIntro string
	recentIntro string
}

var promptLabelsByLang = map[Language]promptLabels{
	LangZH: {
		style:       "风格要求：",
		editRules:   "额外编辑规则：",
		screenIntro: "以下是用户当前屏幕上的文字，仅供纠错参考（理解语境、修正专有名词），不要混入输出：",
		recentIntro: "以下是用户最近的输入，仅供理解惯用词汇，不要混入输出：",
	},
	LangEN: {
		style:       "Style requirements: ",
		editRules:   "Additional editing rules:",
		screenIntro: "The following is text from the user's current screen, for correction reference only (context, proper nouns). Do not mix it into the output:",
		recentIntro: "The following are the user's recent inputs, for vocabulary reference only. Do not mix them into the output:",
	},
	LangDE: {
		style:       "Stilvorgaben: ",
		editRules:   "Zusätzliche Bearbeitungsregeln:",
		screenIntro: "Der folgende Text stammt vom aktuellen Bildschirm des Nutzers, nur als Korrekturreferenz (Kontext, Eigennamen). Nicht in die Ausgabe übernehmen:",
		recentIntro: "Die folgenden Texte sind die letzten Eingaben des Nutzers, nur als Wortschatzreferenz. Nicht in die Ausgabe übernehmen:",
	},
}

// PromptContext carries the optional blocks of the system prompt.
// Untrusted content (screen text, recent inputs) is fenced with ---
// delimiters so the model treats it as reference, not instruction.
type PromptContext struct {
	StylePrompt   string
	EditRules     string
	ScreenContext string
	RecentInputs  string
}

// BuildSystemPrompt assembles the rewrite instruction: base rules for
// the language, then style, edit rules, screen context and recent
// inputs, joined by blank lines in that fixed order.
func BuildSystemPrompt(lang Language, pc PromptContext) string {
	var base string
	switch lang {
	case LangEN:
		base = baseSystemPromptEN
	case LangDE:
		base = baseSystemPromptDE
	default:
		base = baseSystemPromptZH
	}

	labels, ok := promptLabelsByLang[lang]
	if !ok {
		labels = promptLabelsByLang[LangZH]
	}

	parts := []string{base}

	if pc.StylePrompt != "" {
		parts = append(parts, labels.style+pc.StylePrompt)
	}
	if pc.EditRules != "" {
		parts = append(parts, labels.editRules+"\n"+pc.EditRules)
	}
	if pc.ScreenContext != "" {
		parts = append(parts, labels.screenIntro+"\n---\n"+pc.ScreenContext+"\n---")
	}
	if pc.RecentInputs != "" {
		parts = append(parts, labels.recentIntro+"\n---\n"+pc.RecentInputs+"\n---")
	}

	return strings.Join(parts, "\n\n")
}

// BuildUserPrompt wraps the raw transcript as the user message
func BuildUserPrompt(text string) string {
	return text
}
