package config

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Subreddits maps subreddit names to their content tags
type Subreddits map[string][]string

// LoadSubreddits reads the subreddit tag map. A missing file yields an
// empty map rather than an error, so single-subreddit runs still work.
func LoadSubreddits(path string) (Subreddits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Subreddits{}, nil
		}
		return nil, err
	}
	var subs Subreddits
	if err := yaml.Unmarshal(data, &subs); err != nil {
		return nil, err
	}
	if subs == nil {
		subs = Subreddits{}
	}
	return subs, nil
}

// ByTag returns all subreddits carrying the given tag, case-insensitively.
func (s Subreddits) ByTag(tag string) []string {
	tag = strings.ToLower(tag)
	var matched []string
	for name, tags := range s {
		for _, t := range tags {
			if strings.ToLower(t) == tag {
				matched = append(matched, name)
				break
			}
		}
	}
	sort.Strings(matched)
	return matched
}

// AllTags returns every unique tag, lowercased and sorted.
func (s Subreddits) AllTags() []string {
	seen := make(map[string]bool)
	for _, tags := range s {
		for _, t := range tags {
			seen[strings.ToLower(t)] = true
		}
	}
	all := make([]string, 0, len(seen))
	for t := range seen {
		all = append(all, t)
	}
	sort.Strings(all)
	return all
}

// TagsFor returns the tags configured for one subreddit.
func (s Subreddits) TagsFor(name string) []string {
	return s[name]
}
