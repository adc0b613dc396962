package narration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/uhwar/reddit-tik-tok-generator/types"
)

var (
	mdEmphasisRe = regexp.MustCompile(`\*+`)
	mdHeadingRe  = regexp.MustCompile(`#+\s*`)
	mdLinkRe     = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanMarkdown strips Reddit markdown that would be read out loud
// verbatim: emphasis asterisks, heading hashes and inline links.
func CleanMarkdown(text string) string {
	text = mdLinkRe.ReplaceAllString(text, "")
	text = mdEmphasisRe.ReplaceAllString(text, "")
	text = mdHeadingRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// StoryText builds the narration text for a story: title first, then body,
// separated so the synthesizer pauses between them.
func StoryText(story *types.Story) string {
	title := strings.TrimSpace(story.Title)
	if title != "" && !strings.HasSuffix(title, ".") && !strings.HasSuffix(title, "!") && !strings.HasSuffix(title, "?") {
		title += "."
	}
	return CleanMarkdown(title + " " + story.Body)
}

// SplitSentences breaks text after sentence-ending punctuation followed by
// whitespace. Go's regexp has no lookbehind, so this walks the runes.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if runes[i+1] == ' ' || runes[i+1] == '\t' {
				sentence := strings.TrimSpace(string(runes[start : i+1]))
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// EstimateSeconds predicts spoken duration from word count. Only used for
// truncation and split planning; real durations always come from the
// rendered audio.
func EstimateSeconds(text string, wordsPerMinute int) float64 {
	words := len(strings.Fields(text))
	return float64(words) / float64(wordsPerMinute) * 60.0
}

// TruncateToFit keeps whole sentences until the estimate exceeds
// maxSeconds. At least one sentence is always kept.
func TruncateToFit(text string, maxSeconds, wordsPerMinute int) string {
	maxWords := maxSeconds * wordsPerMinute / 60
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return text
	}

	var kept []string
	count := 0
	for _, sentence := range sentences {
		w := len(strings.Fields(sentence))
		if count+w > maxWords && len(kept) > 0 {
			break
		}
		kept = append(kept, sentence)
		count += w
	}
	return strings.Join(kept, " ")
}

// SplitIntoParts breaks text at sentence boundaries into chunks that each
// fit within maxSeconds. Multi-part chunks get a spoken "Part i of n."
// prefix so viewers can follow the series.
func SplitIntoParts(text string, maxSeconds, wordsPerMinute int) []string {
	maxWords := maxSeconds * wordsPerMinute / 60
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var parts []string
	var current []string
	count := 0
	for _, sentence := range sentences {
		w := len(strings.Fields(sentence))
		if count+w > maxWords && len(current) > 0 {
			parts = append(parts, strings.Join(current, " "))
			current = current[:0]
			count = 0
		}
		current = append(current, sentence)
		count += w
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, " "))
	}

	if len(parts) > 1 {
		for i := range parts {
			parts[i] = fmt.Sprintf("Part %d of %d. %s", i+1, len(parts), parts[i])
		}
	}
	return parts
}
