// Package postprocess strips common LLM artifacts from completion output
// before it enters the pipeline: reasoning blocks, markdown code fences,
// leading instruction echoes, and wrapping quotes.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean returns text with model artifacts removed and whitespace trimmed.
// The order matters: fences may wrap an echo, and quotes may wrap anything.
func Clean(text string) string {
	text = stripReasoning(text)
	text = stripFences(text)
	text = stripEchoes(text)
	text = stripQuotes(text)
	return strings.TrimSpace(text)
}

// Each reasoning tag variant is listed explicitly; RE2 has no backreferences.
var reasoningRe = regexp.MustCompile(
	`(?is)<think>.*?</think>|<thinking>.*?</thinking>|<reasoning>.*?</reasoning>`,
)

// openReasoningRe catches a reasoning tag the model never closed.
var openReasoningRe = regexp.MustCompile(`(?is)(?:<think>|<thinking>|<reasoning>).*$`)

func stripReasoning(text string) string {
	text = reasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(openReasoningRe.ReplaceAllString(text, ""))
}

// fenceRe matches a whole-output markdown code fence, with an optional
// language tag on the opening line.
var fenceRe = regexp.MustCompile("(?s)\\A```[a-zA-Z]*\n?(.*?)\n?```\\s*\\z")

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Stray fence markers left after marker-section splitting.
	return strings.TrimSpace(strings.ReplaceAll(text, "```", ""))
}

// echoRes match introductions models prepend despite instructions. Anchored
// to the start and requiring a colon to avoid eating legitimate content.
var echoRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:final |edited |revised |translated )?(?:translation|text|version)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:final |edited |revised )?(?:translation|translated text)\s*:`),
}

func stripEchoes(text string) string {
	for _, re := range echoRes {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// quotePairs are outer quote pairs stripped when they wrap the entire text.
var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'}, // " "
	{'「', '」'}, // 「 」
}

func stripQuotes(text string) string {
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	for _, p := range quotePairs {
		if runes[0] == p[0] && runes[len(runes)-1] == p[1] {
			return strings.TrimSpace(string(runes[1 : len(runes)-1]))
		}
	}
	return text
}
