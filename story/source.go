package story

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"github.com/uhwar/reddit-tik-tok-generator/config"
	"github.com/uhwar/reddit-tik-tok-generator/types"
)

// ErrSourceUnavailable wraps every failure mode of the story source:
// missing credentials, network/auth errors, and empty result sets.
var ErrSourceUnavailable = errors.New("story source unavailable")

// lister is the slice of the Reddit client the source needs
type lister interface {
	HotPosts(ctx context.Context, subreddit string, opts *reddit.ListOptions) ([]*reddit.Post, *reddit.Response, error)
	TopPosts(ctx context.Context, subreddit string, opts *reddit.ListPostOptions) ([]*reddit.Post, *reddit.Response, error)
}

// Source fetches and selects stories from Reddit. Safe for concurrent
// use; the HTTP API calls it from parallel request handlers.
type Source struct {
	cfg   *config.Config
	subs  config.Subreddits
	posts lister

	mu  sync.Mutex // guards rng, which is not concurrency-safe
	rng *rand.Rand
}

// New builds a Source from environment credentials.
// REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET must be set; REDDIT_USERNAME
// and REDDIT_PASSWORD upgrade the client from read-only to script auth.
func New(cfg *config.Config, subs config.Subreddits) (*Source, error) {
	clientID := os.Getenv("REDDIT_CLIENT_ID")
	clientSecret := os.Getenv("REDDIT_CLIENT_SECRET")
	userAgent := os.Getenv("REDDIT_USER_AGENT")

	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: REDDIT_CLIENT_ID or REDDIT_CLIENT_SECRET not set", ErrSourceUnavailable)
	}
	if userAgent == "" {
		userAgent = "reddit-tik-tok-generator/0.1"
	}

	var (
		client *reddit.Client
		err    error
	)
	username := os.Getenv("REDDIT_USERNAME")
	password := os.Getenv("REDDIT_PASSWORD")
	if username != "" && password != "" {
		client, err = reddit.NewClient(reddit.Credentials{
			ID:       clientID,
			Secret:   clientSecret,
			Username: username,
			Password: password,
		}, reddit.WithUserAgent(userAgent))
	} else {
		client, err = reddit.NewReadonlyClient(reddit.WithUserAgent(userAgent))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create reddit client: %v", ErrSourceUnavailable, err)
	}

	return &Source{
		cfg:   cfg,
		subs:  subs,
		posts: client.Subreddit,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Fetch returns one story from a subreddit's hot posts: candidates are
// scored by virality and one of the top 3 is picked at random, so back to
// back runs don't always narrate the same post.
func (s *Source) Fetch(ctx context.Context, subreddit string) (*types.Story, error) {
	posts, _, err := s.posts.HotPosts(ctx, subreddit, &reddit.ListOptions{
		Limit: s.cfg.Reddit.FetchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: r/%s: %v", ErrSourceUnavailable, subreddit, err)
	}

	var candidates []*types.Story
	for _, post := range posts {
		if !usable(post, s.cfg.Reddit.MinBodyChars) {
			continue
		}
		candidates = append(candidates, s.buildStory(post, subreddit))
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no usable self-posts in r/%s", ErrSourceUnavailable, subreddit)
	}

	s.mu.Lock()
	selected := pick(s.rng, candidates)
	s.mu.Unlock()
	log.Printf("[story] selected %q from r/%s (virality %d/9, %d upvotes)",
		selected.Title, subreddit, selected.Virality, selected.Score)
	return selected, nil
}

// FetchByTag gathers hot and top posts from every subreddit carrying a
// tag, deduplicated by post ID and sorted best-first. A positive limit
// overrides the configured per-subreddit fetch size.
func (s *Source) FetchByTag(ctx context.Context, tag string, limit int) ([]*types.Story, error) {
	names := s.subs.ByTag(tag)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no subreddits tagged %q", ErrSourceUnavailable, tag)
	}
	if limit <= 0 {
		limit = s.cfg.Reddit.FetchLimit
	}

	seen := make(map[string]bool)
	var stories []*types.Story

	for _, name := range names {
		hot, _, err := s.posts.HotPosts(ctx, name, &reddit.ListOptions{Limit: limit})
		if err != nil {
			log.Printf("[story] skipping r/%s: %v", name, err)
			continue
		}
		top, _, err := s.posts.TopPosts(ctx, name, &reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: limit / 2},
			Time:        "week",
		})
		if err != nil {
			log.Printf("[story] r/%s top posts: %v", name, err)
		}

		for _, post := range append(hot, top...) {
			if seen[post.FullID] || !usable(post, s.cfg.Reddit.MinBodyChars) {
				continue
			}
			seen[post.FullID] = true
			stories = append(stories, s.buildStory(post, name))
		}
	}

	if len(stories) == 0 {
		return nil, fmt.Errorf("%w: no usable stories for tag %q", ErrSourceUnavailable, tag)
	}

	sort.SliceStable(stories, func(i, j int) bool {
		if stories[i].Virality != stories[j].Virality {
			return stories[i].Virality > stories[j].Virality
		}
		return stories[i].Score > stories[j].Score
	})
	return stories, nil
}

// usable filters out link posts, removed bodies and shorts-unworthy stubs
func usable(post *reddit.Post, minBodyChars int) bool {
	if !post.IsSelfPost || post.Stickied {
		return false
	}
	if post.Body == "[removed]" || post.Body == "[deleted]" {
		return false
	}
	return len(post.Body) >= minBodyChars
}

func (s *Source) buildStory(post *reddit.Post, subreddit string) *types.Story {
	story := &types.Story{
		ID:          post.FullID,
		Title:       post.Title,
		Body:        post.Body,
		Subreddit:   subreddit,
		Author:      post.Author,
		URL:         fmt.Sprintf("https://reddit.com%s", post.Permalink),
		Score:       post.Score,
		UpvoteRatio: float64(post.UpvoteRatio),
		NumComments: post.NumberOfComments,
		Virality:    Virality(post.Score, post.NumberOfComments),
		Tags:        s.subs.TagsFor(subreddit),
	}
	if post.Created != nil {
		story.CreatedAt = post.Created.Format(time.RFC3339)
	}
	return story
}

// pick returns a random story from the top 3 by virality, then upvotes
func pick(rng *rand.Rand, candidates []*types.Story) *types.Story {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Virality != candidates[j].Virality {
			return candidates[i].Virality > candidates[j].Virality
		}
		return candidates[i].Score > candidates[j].Score
	})
	topN := 3
	if len(candidates) < topN {
		topN = len(candidates)
	}
	return candidates[rng.Intn(topN)]
}
