package types

// Story holds one Reddit self-post selected for narration
type Story struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Subreddit   string   `json:"subreddit"`
	Author      string   `json:"author"`
	URL         string   `json:"url"`
	Score       int      `json:"score"`
	UpvoteRatio float64  `json:"upvote_ratio"`
	NumComments int      `json:"num_comments"`
	CreatedAt   string   `json:"created_at"`
	Virality    int      `json:"virality_score"`
	Tags        []string `json:"tags,omitempty"`
}

// NarrationAsset is the rendered speech audio for one story (or story part)
type NarrationAsset struct {
	Path        string  `json:"path"`
	DurationSec float64 `json:"duration_sec"`
}

// BackgroundAsset describes the user-supplied looping background clip
type BackgroundAsset struct {
	Path        string  `json:"path"`
	DurationSec float64 `json:"duration_sec"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// OutputVideo is the composed deliverable. Its duration always matches
// the narration it was built from.
type OutputVideo struct {
	Path        string  `json:"path"`
	DurationSec float64 `json:"duration_sec"`
}

// PipelineState tracks the full state of one pipeline run
type PipelineState struct {
	RunID       string            `json:"run_id"`
	StartedAt   string            `json:"started_at"`
	CompletedAt string            `json:"completed_at"`
	Story       *Story            `json:"story"`
	Narrations  []*NarrationAsset `json:"narrations,omitempty"`
	Videos      []*OutputVideo    `json:"videos,omitempty"`
	YouTubeURLs []string          `json:"youtube_urls,omitempty"`
	Error       string            `json:"error,omitempty"`
}
