package narration

import (
	"reflect"
	"strings"
	"testing"

	"github.com/uhwar/reddit-tik-tok-generator/types"
)

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"emphasis", "this is **really** important", "this is really important"},
		{"heading", "## Update\nmore text", "Update more text"},
		{"link", "see [the post](https://reddit.com/x) here", "see  here"},
		{"newlines", "one\n\ntwo\nthree", "one two three"},
		{"plain", "nothing to strip", "nothing to strip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanMarkdown(tt.in)
			want := strings.Join(strings.Fields(tt.want), " ")
			if got != want {
				t.Errorf("CleanMarkdown(%q) = %q, want %q", tt.in, got, want)
			}
		})
	}
}

func TestStoryText(t *testing.T) {
	st := &types.Story{Title: "AITA for this", Body: "It all started yesterday."}
	got := StoryText(st)
	want := "AITA for this. It all started yesterday."
	if got != want {
		t.Errorf("StoryText() = %q, want %q", got, want)
	}

	// titles already ending in punctuation are left alone
	st2 := &types.Story{Title: "Why me?", Body: "Because."}
	if got := StoryText(st2); got != "Why me? Because." {
		t.Errorf("StoryText() = %q", got)
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			"basic",
			"One. Two! Three?",
			[]string{"One.", "Two!", "Three?"},
		},
		{
			"no trailing space",
			"Only one sentence",
			[]string{"Only one sentence"},
		},
		{
			"abbrev-free text keeps decimals together",
			"It cost 3.50 dollars. Too much.",
			[]string{"It cost 3.50 dollars.", "Too much."},
		},
		{"empty", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSentences(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEstimateSeconds(t *testing.T) {
	// 150 words at 150 wpm is exactly one minute
	text := strings.TrimSpace(strings.Repeat("word ", 150))
	if got := EstimateSeconds(text, 150); got != 60.0 {
		t.Errorf("EstimateSeconds() = %v, want 60", got)
	}
}

func TestTruncateToFit(t *testing.T) {
	// 10 sentences of 10 words each; 20s at 150wpm allows 50 words = 5 sentences
	sentence := strings.TrimSpace(strings.Repeat("word ", 9)) + " end."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 10))

	got := TruncateToFit(text, 20, 150)
	kept := SplitSentences(got)
	if len(kept) != 5 {
		t.Errorf("kept %d sentences, want 5", len(kept))
	}

	// always keeps at least one sentence even if the first overflows
	got = TruncateToFit(sentence, 1, 150)
	if got == "" {
		t.Error("TruncateToFit() emptied the text")
	}
}

func TestSplitIntoParts(t *testing.T) {
	sentence := strings.TrimSpace(strings.Repeat("word ", 9)) + " end."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 10))

	parts := SplitIntoParts(text, 20, 150)
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if !strings.HasPrefix(parts[0], "Part 1 of 2. ") {
		t.Errorf("parts[0] missing prefix: %q", parts[0][:30])
	}
	if !strings.HasPrefix(parts[1], "Part 2 of 2. ") {
		t.Errorf("parts[1] missing prefix: %q", parts[1][:30])
	}

	// short text stays one unprefixed part
	single := SplitIntoParts("Tiny story.", 120, 150)
	if len(single) != 1 || strings.HasPrefix(single[0], "Part") {
		t.Errorf("short text should be a single bare part, got %v", single)
	}
}
