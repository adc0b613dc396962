package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Reddit    RedditConfig    `yaml:"reddit"`
	Narration NarrationConfig `yaml:"narration"`
	Video     VideoConfig     `yaml:"video"`
	Subtitles SubtitlesConfig `yaml:"subtitles"`
	Server    ServerConfig    `yaml:"server"`
	Upload    UploadConfig    `yaml:"upload"`
	Paths     PathsConfig     `yaml:"paths"`
}

type RedditConfig struct {
	DefaultSubreddit string `yaml:"default_subreddit"`
	FetchLimit       int    `yaml:"fetch_limit"`
	MinBodyChars     int    `yaml:"min_body_chars"`
}

type NarrationConfig struct {
	Voice          string  `yaml:"voice"`
	Speed          float64 `yaml:"speed"`
	WordsPerMinute int     `yaml:"words_per_minute"`
	MaxSeconds     int     `yaml:"max_seconds"`
	AllowSplit     bool    `yaml:"allow_split"`
}

type VideoConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	FPS          int    `yaml:"fps"`
	Preset       string `yaml:"preset"`
	CRF          int    `yaml:"crf"`
	AudioBitrate string `yaml:"audio_bitrate"`
}

type SubtitlesConfig struct {
	Enabled      bool   `yaml:"enabled"`
	WhisperModel string `yaml:"whisper_model"`
	Font         string `yaml:"font"`
	FontSize     int    `yaml:"font_size"`
	MaxLineChars int    `yaml:"max_line_chars"`
	MarginBottom int    `yaml:"margin_bottom"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type UploadConfig struct {
	Visibility        string `yaml:"visibility"`
	CategoryID        string `yaml:"category_id"`
	MadeForKids       bool   `yaml:"made_for_kids"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
	DefaultLanguage   string `yaml:"default_language"`
}

type PathsConfig struct {
	Background string `yaml:"background"`
	Narration  string `yaml:"narration"`
	Output     string `yaml:"output"`
	Subreddits string `yaml:"subreddits"`
	State      string `yaml:"state"`
}

// Load reads a YAML config file and applies defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Paths.Background == "" {
		return fmt.Errorf("paths.background is required")
	}
	if c.Reddit.DefaultSubreddit == "" {
		c.Reddit.DefaultSubreddit = "AmItheAsshole"
	}
	if c.Reddit.FetchLimit == 0 {
		c.Reddit.FetchLimit = 20
	}
	if c.Reddit.MinBodyChars == 0 {
		c.Reddit.MinBodyChars = 100
	}
	if c.Narration.Voice == "" {
		c.Narration.Voice = "1"
	}
	if c.Narration.Speed == 0 {
		c.Narration.Speed = 1.5
	}
	if c.Narration.WordsPerMinute == 0 {
		c.Narration.WordsPerMinute = 150
	}
	if c.Narration.MaxSeconds == 0 {
		c.Narration.MaxSeconds = 120
	}
	if c.Video.Width == 0 {
		c.Video.Width = 1080
	}
	if c.Video.Height == 0 {
		c.Video.Height = 1920
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = 30
	}
	if c.Video.Preset == "" {
		c.Video.Preset = "fast"
	}
	if c.Video.CRF == 0 {
		c.Video.CRF = 22
	}
	if c.Video.AudioBitrate == "" {
		c.Video.AudioBitrate = "192k"
	}
	if c.Subtitles.WhisperModel == "" {
		c.Subtitles.WhisperModel = "base"
	}
	if c.Subtitles.Font == "" {
		c.Subtitles.Font = "Arial"
	}
	if c.Subtitles.FontSize == 0 {
		c.Subtitles.FontSize = 14
	}
	if c.Subtitles.MaxLineChars == 0 {
		c.Subtitles.MaxLineChars = 32
	}
	if c.Subtitles.MarginBottom == 0 {
		c.Subtitles.MarginBottom = 80
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Upload.Visibility == "" {
		c.Upload.Visibility = "private"
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "24"
	}
	if c.Upload.DefaultLanguage == "" {
		c.Upload.DefaultLanguage = "en"
	}
	if c.Paths.Narration == "" {
		c.Paths.Narration = "narration.mp3"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "generated_video.mp4"
	}
	if c.Paths.Subreddits == "" {
		c.Paths.Subreddits = "subreddits.yaml"
	}
	if c.Paths.State == "" {
		c.Paths.State = "pipeline_state.json"
	}
	return nil
}
