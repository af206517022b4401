package recipe

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxSteps      = 10
	minStepLength = 7
	fallbackStep  = "Open the linked recipe page and follow the instructions."
)

var (
	markupPattern     = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	stepMarkerPattern = regexp.MustCompile(`(?i)(?:step|étape|paso)\s*\d+[:.)\-]\s*`)
	sentenceEnd       = regexp.MustCompile(`\.\s+`)
)

// ExtractSteps 從 HTML 摘要推導步驟：去除標籤後依步驟標記或句點切分。
// 保留至少 7 個字元的片段，最多 10 步。
func ExtractSteps(html string) []string {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	text := markupPattern.ReplaceAllString(html, " ")
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))

	var steps []string
	for _, chunk := range stepMarkerPattern.Split(text, -1) {
		for _, sentence := range splitSentences(chunk) {
			sentence = strings.TrimSpace(sentence)
			if utf8.RuneCountInString(sentence) < minStepLength {
				continue
			}
			steps = append(steps, sentence)
			if len(steps) == maxSteps {
				return steps
			}
		}
	}
	return steps
}

// splitSentences 在句點後的空白處切分，句點保留在前一句
func splitSentences(s string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(s, -1) {
		out = append(out, s[last:loc[0]+1])
		last = loc[1]
	}
	return append(out, s[last:])
}

// resolveSteps 依序採用結構化步驟、摘要推導、預設步驟
func resolveSteps(structured []string, detail *Detail) []string {
	var steps []string
	for _, s := range structured {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) > 0 {
		return steps
	}
	if detail != nil {
		text := detail.Summary
		if strings.TrimSpace(text) == "" {
			text = detail.Instructions
		}
		if steps = ExtractSteps(text); len(steps) > 0 {
			return steps
		}
	}
	return []string{fallbackStep}
}
