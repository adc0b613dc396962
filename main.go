package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/uhwar/reddit-tik-tok-generator/compose"
	"github.com/uhwar/reddit-tik-tok-generator/config"
	"github.com/uhwar/reddit-tik-tok-generator/ffmpeg"
	"github.com/uhwar/reddit-tik-tok-generator/narration"
	"github.com/uhwar/reddit-tik-tok-generator/server"
	"github.com/uhwar/reddit-tik-tok-generator/story"
	"github.com/uhwar/reddit-tik-tok-generator/types"
	"github.com/uhwar/reddit-tik-tok-generator/upload"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	subreddit := flag.String("subreddit", "", "subreddit to pull the story from (overrides config)")
	tag := flag.String("tag", "", "pick the best story across all subreddits with this tag")
	voice := flag.String("voice", "", "narration voice key (overrides config)")
	split := flag.Bool("split", false, "split long stories into multiple part videos")
	doUpload := flag.Bool("upload", false, "upload the composed video to YouTube")
	serve := flag.Bool("serve", false, "run the story-browsing HTTP API instead of the pipeline")
	flag.Parse()

	// .env is local-dev convenience; real deployments inject the env
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *voice != "" {
		cfg.Narration.Voice = *voice
	}
	if *split {
		cfg.Narration.AllowSplit = true
	}

	subs, err := config.LoadSubreddits(cfg.Paths.Subreddits)
	if err != nil {
		log.Fatalf("Failed to load subreddit tags: %v", err)
	}

	source, err := story.New(cfg, subs)
	if err != nil {
		log.Fatalf("Failed to init story source: %v", err)
	}

	if *serve {
		srv := server.New(cfg, subs, source)
		log.Printf("🌐 Serving story API on %s", cfg.Server.Addr)
		if err := srv.Run(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	runID := uuid.NewString()[:8]
	log.Printf("🎬 Starting pipeline run %s", runID)

	state := &types.PipelineState{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}

	err = run(context.Background(), cfg, source, state, *subreddit, *tag, *doUpload)

	state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		state.Error = err.Error()
	}
	saveState(cfg.Paths.State, state)

	if err != nil {
		log.Printf("❌ Pipeline failed at the %s step: %v", failedStep(err), err)
		os.Exit(1)
	}
	for _, v := range state.Videos {
		log.Printf("✅ Video ready: %s (%.1fs)", v.Path, v.DurationSec)
	}
}

// run executes the linear pipeline: each step's success gates the next
func run(ctx context.Context, cfg *config.Config, source *story.Source, state *types.PipelineState, subreddit, tag string, doUpload bool) error {
	if err := ffmpeg.Available(); err != nil {
		return fmt.Errorf("%w: %v", compose.ErrCompositionFailed, err)
	}
	ex := ffmpeg.NewExecutor()

	log.Println("━━━ Step 1: Story ━━━")
	st, err := fetchStory(ctx, cfg, source, subreddit, tag)
	if err != nil {
		return err
	}
	state.Story = st

	text := narration.StoryText(st)
	parts := []string{text}
	if est := narration.EstimateSeconds(text, cfg.Narration.WordsPerMinute); est > float64(cfg.Narration.MaxSeconds) {
		if cfg.Narration.AllowSplit {
			parts = narration.SplitIntoParts(text, cfg.Narration.MaxSeconds, cfg.Narration.WordsPerMinute)
			log.Printf("[narration] story runs ~%.0fs, splitting into %d parts", est, len(parts))
		} else {
			parts = []string{narration.TruncateToFit(text, cfg.Narration.MaxSeconds, cfg.Narration.WordsPerMinute)}
			log.Printf("[narration] story runs ~%.0fs, truncated to fit one video", est)
		}
	}

	synth := narration.NewSynthesizer(cfg, ex)
	composer := compose.New(cfg, ex)

	for i, part := range parts {
		label := ""
		if len(parts) > 1 {
			label = fmt.Sprintf(" (part %d/%d)", i+1, len(parts))
		}

		log.Printf("━━━ Step 2: Narration%s ━━━", label)
		asset, err := synth.Run(ctx, part, partPath(cfg.Paths.Narration, i, len(parts)))
		if err != nil {
			return err
		}
		state.Narrations = append(state.Narrations, asset)

		log.Printf("━━━ Step 3: Composition%s ━━━", label)
		video, err := composer.Run(ctx, asset, partPath(cfg.Paths.Output, i, len(parts)))
		if err != nil {
			return err
		}
		state.Videos = append(state.Videos, video)
	}

	if doUpload {
		log.Println("━━━ Step 4: Upload ━━━")
		uploader := upload.New(cfg)
		for _, video := range state.Videos {
			_, watchURL, err := uploader.Run(ctx, video.Path, st)
			if err != nil {
				return err
			}
			state.YouTubeURLs = append(state.YouTubeURLs, watchURL)
		}
	}

	return nil
}

func fetchStory(ctx context.Context, cfg *config.Config, source *story.Source, subreddit, tag string) (*types.Story, error) {
	if tag != "" {
		stories, err := source.FetchByTag(ctx, tag, 0)
		if err != nil {
			return nil, err
		}
		return stories[0], nil
	}
	if subreddit == "" {
		subreddit = cfg.Reddit.DefaultSubreddit
	}
	return source.Fetch(ctx, subreddit)
}

// partPath suffixes multi-part outputs: out.mp4 -> out_part2.mp4
func partPath(base string, idx, total int) string {
	if total <= 1 {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s_part%d%s", strings.TrimSuffix(base, ext), idx+1, ext)
}

func failedStep(err error) string {
	switch {
	case errors.Is(err, story.ErrSourceUnavailable):
		return "story"
	case errors.Is(err, narration.ErrSynthesisFailed):
		return "narration"
	case errors.Is(err, compose.ErrCompositionFailed):
		return "composition"
	case errors.Is(err, upload.ErrUploadFailed):
		return "upload"
	default:
		return "unknown"
	}
}

func saveState(path string, state *types.PipelineState) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Printf("Warning: could not marshal pipeline state: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Warning: could not save %s: %v", path, err)
	}
}
