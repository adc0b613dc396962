package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testSubreddits() Subreddits {
	return Subreddits{
		"nosleep":             {"Horror", "scary"},
		"AmItheAsshole":       {"drama"},
		"relationship_advice": {"drama", "advice"},
	}
}

func TestByTag(t *testing.T) {
	subs := testSubreddits()

	tests := []struct {
		tag  string
		want []string
	}{
		{"drama", []string{"AmItheAsshole", "relationship_advice"}},
		{"DRAMA", []string{"AmItheAsshole", "relationship_advice"}},
		{"horror", []string{"nosleep"}},
		{"unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got := subs.ByTag(tt.tag)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ByTag(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestAllTags(t *testing.T) {
	got := testSubreddits().AllTags()
	want := []string{"advice", "drama", "horror", "scary"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllTags() = %v, want %v", got, want)
	}
}

func TestLoadSubreddits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subreddits.yaml")

	content := `
nosleep: [horror, scary]
tifu: [funny]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	subs, err := LoadSubreddits(path)
	if err != nil {
		t.Fatalf("LoadSubreddits() error = %v", err)
	}
	if !reflect.DeepEqual(subs.TagsFor("tifu"), []string{"funny"}) {
		t.Errorf("TagsFor(tifu) = %v", subs.TagsFor("tifu"))
	}
}

func TestLoadSubredditsMissingFile(t *testing.T) {
	subs, err := LoadSubreddits(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected empty map, got %v", subs)
	}
}
