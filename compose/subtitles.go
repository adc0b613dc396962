package compose

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/uhwar/reddit-tik-tok-generator/config"
	"github.com/uhwar/reddit-tik-tok-generator/ffmpeg"
)

// Subtitler transcribes the narration with Whisper and burns the synced
// captions into the composed video.
type Subtitler struct {
	cfg  *config.Config
	exec ffmpeg.Executor
}

// NewSubtitler creates a Subtitler
func NewSubtitler(cfg *config.Config, ex ffmpeg.Executor) *Subtitler {
	return &Subtitler{cfg: cfg, exec: ex}
}

// Transcribe runs the whisper CLI on the narration audio and returns the
// path of the SRT it produced.
func (s *Subtitler) Transcribe(ctx context.Context, audioFile string) (string, error) {
	log.Println("[subtitles] Running Whisper transcription...")

	outputDir := filepath.Dir(audioFile)
	if outputDir == "" {
		outputDir = "."
	}

	_, err := s.exec.Execute(ctx, "whisper",
		audioFile,
		"--model", s.cfg.Subtitles.WhisperModel,
		"--output_format", "srt",
		"--output_dir", outputDir,
		"--language", "en",
		"--word_timestamps", "True",
		"--max_line_width", fmt.Sprintf("%d", s.cfg.Subtitles.MaxLineChars),
		"--max_line_count", "2",
	)
	if err != nil {
		return "", fmt.Errorf("whisper failed: %w", err)
	}

	// whisper names the SRT after the audio file
	base := strings.TrimSuffix(filepath.Base(audioFile), filepath.Ext(audioFile))
	srtFile := filepath.Join(outputDir, base+".srt")
	if err := ValidateSRT(srtFile); err != nil {
		return "", err
	}

	log.Printf("[subtitles] ✅ SRT generated: %s", srtFile)
	return srtFile, nil
}

// Burn re-encodes the video with the captions rendered in, replacing it
// in place so the fixed output path still holds.
func (s *Subtitler) Burn(ctx context.Context, videoFile, srtFile string) error {
	log.Println("[subtitles] Burning subtitles into video...")

	tmp := filepath.Join(filepath.Dir(videoFile), ".subtitled.mp4")
	if _, err := s.exec.Execute(ctx, "ffmpeg", s.burnArgs(videoFile, srtFile, tmp)...); err != nil {
		return fmt.Errorf("subtitle burn: %w", err)
	}
	return os.Rename(tmp, videoFile)
}

func (s *Subtitler) burnArgs(videoFile, srtFile, outPath string) []string {
	filter := fmt.Sprintf(
		"subtitles=%s:force_style='FontName=%s,FontSize=%d,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=2,Alignment=2,MarginV=%d'",
		escapeFilterPath(srtFile),
		s.cfg.Subtitles.Font,
		s.cfg.Subtitles.FontSize,
		s.cfg.Subtitles.MarginBottom,
	)

	return []string{"-y",
		"-i", videoFile,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", s.cfg.Video.Preset,
		"-crf", fmt.Sprintf("%d", s.cfg.Video.CRF),
		"-c:a", "copy",
		outPath,
	}
}

// ValidateSRT checks that the SRT file is present and holds at least one
// complete cue before it is handed to the burn pass.
func ValidateSRT(srtFile string) error {
	f, err := os.Open(srtFile)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
	}

	if lineCount < 3 {
		return fmt.Errorf("SRT file appears empty or malformed (%d lines)", lineCount)
	}
	return nil
}

// escapeFilterPath escapes the characters the subtitles filter treats as
// option separators
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}
