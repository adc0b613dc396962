package compose

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/uhwar/reddit-tik-tok-generator/config"
	"github.com/uhwar/reddit-tik-tok-generator/ffmpeg"
	"github.com/uhwar/reddit-tik-tok-generator/types"
)

// ErrCompositionFailed covers missing/corrupt background assets and
// renderer failures
var ErrCompositionFailed = errors.New("video composition failed")

// Composer turns a narration track and a background clip into the final
// 9:16 video
type Composer struct {
	cfg  *config.Config
	exec ffmpeg.Executor
	rng  *rand.Rand
}

// New creates a Composer
func New(cfg *config.Config, ex ffmpeg.Executor) *Composer {
	return &Composer{
		cfg:  cfg,
		exec: ex,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run composes the output video at outPath, overwriting any previous run.
// The background is looped or trimmed to the narration's duration, never
// the reverse: the output always runs exactly as long as the speech.
func (c *Composer) Run(ctx context.Context, narration *types.NarrationAsset, outPath string) (*types.OutputVideo, error) {
	if _, err := os.Stat(c.cfg.Paths.Background); err != nil {
		return nil, fmt.Errorf("%w: background asset: %v", ErrCompositionFailed, err)
	}

	info, err := ffmpeg.ProbeVideo(ctx, c.exec, c.cfg.Paths.Background)
	if err != nil {
		return nil, fmt.Errorf("%w: probe background: %v", ErrCompositionFailed, err)
	}
	bg := &types.BackgroundAsset{
		Path:        c.cfg.Paths.Background,
		DurationSec: info.DurationSec,
		Width:       info.Width,
		Height:      info.Height,
	}

	target := narration.DurationSec
	loops := LoopCount(bg.DurationSec, target)
	offset := c.rng.Float64() * MaxStartOffset(bg.DurationSec, target, loops)

	log.Printf("[compose] background %.1fs (%dx%d), narration %.1fs: %d extra loop(s), start offset %.2fs",
		bg.DurationSec, bg.Width, bg.Height, target, loops, offset)

	silentPath := filepath.Join(filepath.Dir(outPath), ".bg_silent.mp4")
	if _, err := c.exec.Execute(ctx, "ffmpeg", c.prepareArgs(bg, target, loops, offset, silentPath)...); err != nil {
		return nil, fmt.Errorf("%w: prepare background: %v", ErrCompositionFailed, err)
	}
	defer os.Remove(silentPath)

	if _, err := c.exec.Execute(ctx, "ffmpeg", c.muxArgs(silentPath, narration.Path, outPath)...); err != nil {
		return nil, fmt.Errorf("%w: mux narration: %v", ErrCompositionFailed, err)
	}

	if c.cfg.Subtitles.Enabled {
		subber := NewSubtitler(c.cfg, c.exec)
		srtFile, err := subber.Transcribe(ctx, narration.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: transcribe narration: %v", ErrCompositionFailed, err)
		}
		if err := subber.Burn(ctx, outPath, srtFile); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCompositionFailed, err)
		}
	}

	log.Printf("[compose] ✅ wrote %s (%.1fs)", outPath, target)
	return &types.OutputVideo{Path: outPath, DurationSec: target}, nil
}

// prepareArgs builds the first ffmpeg pass: loop/trim the background to
// the narration's length, center-crop to 9:16 and scale to the output
// frame, dropping the clip's own audio.
func (c *Composer) prepareArgs(bg *types.BackgroundAsset, target float64, loops int, offset float64, outPath string) []string {
	cw, ch, x, y := CropGeometry(bg.Width, bg.Height)

	filter := fmt.Sprintf("crop=%d:%d:%d:%d,scale=%d:%d,setsar=1",
		cw, ch, x, y, c.cfg.Video.Width, c.cfg.Video.Height)

	args := []string{"-y"}
	if loops > 0 {
		args = append(args, "-stream_loop", fmt.Sprintf("%d", loops))
	}
	args = append(args,
		"-ss", fmt.Sprintf("%.3f", offset),
		"-i", bg.Path,
		"-t", fmt.Sprintf("%.3f", target),
		"-vf", filter,
		"-r", fmt.Sprintf("%d", c.cfg.Video.FPS),
		"-c:v", "libx264",
		"-preset", c.cfg.Video.Preset,
		"-crf", fmt.Sprintf("%d", c.cfg.Video.CRF),
		"-pix_fmt", "yuv420p",
		"-an",
		outPath,
	)
	return args
}

// muxArgs builds the second pass: attach the narration as the only audio
// track without re-encoding the video.
func (c *Composer) muxArgs(videoPath, audioPath, outPath string) []string {
	return []string{"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", c.cfg.Video.AudioBitrate,
		"-shortest",
		"-movflags", "+faststart",
		outPath,
	}
}

// LoopCount returns how many extra repetitions of the background are
// needed to cover the target duration. Zero means the clip is already
// long enough.
func LoopCount(bgDuration, target float64) int {
	if bgDuration <= 0 || bgDuration >= target {
		return 0
	}
	return int(target/bgDuration) + 1
}

// MaxStartOffset is the largest start offset that still leaves target
// seconds of (possibly looped) background after it. The -ss seek resolves
// against the file's own timeline even when -stream_loop repeats it, so a
// looped render keeps the offset inside one native playthrough.
func MaxStartOffset(bgDuration, target float64, loops int) float64 {
	total := bgDuration * float64(loops+1)
	max := total - target
	if loops > 0 && max > bgDuration {
		max = bgDuration
	}
	if max > 0 {
		return max
	}
	return 0
}

// CropGeometry computes a centered 9:16 crop window. The wider dimension
// is cropped symmetrically about the center; there is no letterboxing.
func CropGeometry(width, height int) (cw, ch, x, y int) {
	// aspect compare without float drift: w/h > 9/16  <=>  16w > 9h
	if 16*width > 9*height {
		cw = height * 9 / 16
		ch = height
		x = (width - cw) / 2
		y = 0
	} else {
		cw = width
		ch = width * 16 / 9
		x = 0
		y = (height - ch) / 2
	}
	return cw, ch, x, y
}
