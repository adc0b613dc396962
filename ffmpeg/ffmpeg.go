package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Executor runs external media commands. The indirection exists so the
// composer and narrator can be tested without ffmpeg on the host.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}

type implExecutor struct{}

// NewExecutor creates the real command executor
func NewExecutor() Executor {
	return &implExecutor{}
}

func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}

	return stdout.String(), nil
}

// Available verifies ffmpeg and ffprobe are on PATH. Their absence is a
// fatal precondition for the whole pipeline, checked once at startup.
func Available() error {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found on PATH: %w", bin, err)
		}
	}
	return nil
}

// AudioDuration measures an audio file's playback length with ffprobe
func AudioDuration(ctx context.Context, ex Executor, path string) (float64, error) {
	out, err := ex.Execute(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", strings.TrimSpace(out), err)
	}
	return dur, nil
}

// VideoInfo holds the probed properties of a video file
type VideoInfo struct {
	DurationSec float64
	Width       int
	Height      int
}

type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeVideo reads duration and frame dimensions of a video file
func ProbeVideo(ctx context.Context, ex Executor, path string) (VideoInfo, error) {
	out, err := ex.Execute(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return VideoInfo{}, err
	}

	var probed probeOutput
	if err := json.Unmarshal([]byte(out), &probed); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(probed.Streams) == 0 {
		return VideoInfo{}, fmt.Errorf("no video stream in %s", path)
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(probed.Format.Duration), 64)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe duration %q: %w", probed.Format.Duration, err)
	}

	info := VideoInfo{
		DurationSec: dur,
		Width:       probed.Streams[0].Width,
		Height:      probed.Streams[0].Height,
	}
	if info.Width <= 0 || info.Height <= 0 {
		return VideoInfo{}, fmt.Errorf("invalid dimensions %dx%d in %s", info.Width, info.Height, path)
	}
	return info, nil
}
