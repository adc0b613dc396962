package compose

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uhwar/reddit-tik-tok-generator/config"
	"github.com/uhwar/reddit-tik-tok-generator/types"
)

type fakeExecutor struct {
	calls    [][]string
	probeOut string
	ffErr    error

	// touch makes whisper/ffmpeg calls leave their output files behind,
	// the way the real binaries would
	touch bool
}

func (f *fakeExecutor) Execute(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	switch name {
	case "ffprobe":
		return f.probeOut, nil
	case "whisper":
		if f.touch {
			writeFakeSRT(args)
		}
	case "ffmpeg":
		if f.touch && f.ffErr == nil && len(args) > 0 {
			_ = os.WriteFile(args[len(args)-1], []byte("rendered"), 0644)
		}
	}
	return "", f.ffErr
}

// writeFakeSRT drops a minimal transcript where whisper would
func writeFakeSRT(args []string) {
	audio := args[0]
	dir := filepath.Dir(audio)
	for i, a := range args {
		if a == "--output_dir" && i+1 < len(args) {
			dir = args[i+1]
		}
	}
	base := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
	srt := "1\n00:00:00,000 --> 00:00:01,500\nhello there\n"
	_ = os.WriteFile(filepath.Join(dir, base+".srt"), []byte(srt), 0644)
}

const probeJSON = `{
  "streams": [{"width": 1920, "height": 1080}],
  "format": {"duration": "10.000000"}
}`

func testConfig(background string) *config.Config {
	cfg := &config.Config{}
	cfg.Paths.Background = background
	cfg.Video.Width = 1080
	cfg.Video.Height = 1920
	cfg.Video.FPS = 30
	cfg.Video.Preset = "fast"
	cfg.Video.CRF = 22
	cfg.Video.AudioBitrate = "192k"
	return cfg
}

func TestCropGeometry(t *testing.T) {
	tests := []struct {
		name                         string
		width, height                int
		wantCW, wantCH, wantX, wantY int
	}{
		{"1080p landscape", 1920, 1080, 607, 1080, 656, 0},
		{"4k landscape", 3840, 2160, 1215, 2160, 1312, 0},
		{"already portrait", 1080, 1920, 1080, 1920, 0, 0},
		{"square", 1000, 1000, 562, 1000, 219, 0},
		{"taller than 9:16", 1080, 2400, 1080, 1920, 0, 240},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cw, ch, x, y := CropGeometry(tt.width, tt.height)
			if cw != tt.wantCW || ch != tt.wantCH || x != tt.wantX || y != tt.wantY {
				t.Errorf("CropGeometry(%d, %d) = (%d, %d, %d, %d), want (%d, %d, %d, %d)",
					tt.width, tt.height, cw, ch, x, y, tt.wantCW, tt.wantCH, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestLoopCount(t *testing.T) {
	tests := []struct {
		name               string
		bgDuration, target float64
		want               int
	}{
		{"long enough", 120, 45, 0},
		{"exactly enough", 45, 45, 0},
		{"needs loops", 10, 35, 4},
		{"just short", 44, 45, 2},
		{"zero duration clip", 0, 45, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LoopCount(tt.bgDuration, tt.target); got != tt.want {
				t.Errorf("LoopCount(%v, %v) = %d, want %d", tt.bgDuration, tt.target, got, tt.want)
			}
		})
	}
}

func TestMaxStartOffset(t *testing.T) {
	// 10s clip looped 4 extra times covers 50s with 15s of slack, but the
	// seek runs on the file's own 10s timeline, so the bound stays inside it
	if got := MaxStartOffset(10, 35, 4); got != 10 {
		t.Errorf("MaxStartOffset() = %v, want 10 (capped at clip length)", got)
	}
	// no looping: the whole native slack is usable
	if got := MaxStartOffset(120, 45, 0); got != 75 {
		t.Errorf("MaxStartOffset() = %v, want 75", got)
	}
	// never negative
	if got := MaxStartOffset(10, 100, 0); got != 0 {
		t.Errorf("MaxStartOffset() = %v, want 0", got)
	}
}

func TestMaxStartOffsetNeverExceedsClip(t *testing.T) {
	for target := 5.0; target <= 300; target += 7 {
		loops := LoopCount(10, target)
		if max := MaxStartOffset(10, target, loops); max > 10 {
			t.Errorf("target %.0fs: offset bound %.2f exceeds the 10s clip", target, max)
		}
	}
}

func TestPrepareArgs(t *testing.T) {
	c := &Composer{cfg: testConfig("bg.mp4")}
	bg := &types.BackgroundAsset{Path: "bg.mp4", DurationSec: 10, Width: 1920, Height: 1080}

	args := c.prepareArgs(bg, 35, 4, 2.5, "silent.mp4")
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-stream_loop 4",
		"-ss 2.500",
		"-i bg.mp4",
		"-t 35.000",
		"crop=607:1080:656:0,scale=1080:1920,setsar=1",
		"-r 30",
		"-c:v libx264",
		"-preset fast",
		"-crf 22",
		"-pix_fmt yuv420p",
		"-an silent.mp4",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("prepareArgs missing %q in: %s", want, joined)
		}
	}

	// no loop flag when the clip already covers the target
	args = c.prepareArgs(bg, 8, 0, 0, "silent.mp4")
	if strings.Contains(strings.Join(args, " "), "-stream_loop") {
		t.Error("prepareArgs added -stream_loop when no loops are needed")
	}
}

func TestMuxArgs(t *testing.T) {
	c := &Composer{cfg: testConfig("bg.mp4")}
	joined := strings.Join(c.muxArgs("silent.mp4", "voice.mp3", "final.mp4"), " ")

	for _, want := range []string{
		"-i silent.mp4",
		"-i voice.mp3",
		"-map 0:v:0",
		"-map 1:a:0",
		"-c:v copy",
		"-c:a aac",
		"-b:a 192k",
		"-shortest",
		"-movflags +faststart",
		"final.mp4",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("muxArgs missing %q in: %s", want, joined)
		}
	}
}

func TestRunMissingBackground(t *testing.T) {
	c := &Composer{
		cfg:  testConfig(filepath.Join(t.TempDir(), "nope.mp4")),
		exec: &fakeExecutor{probeOut: probeJSON},
		rng:  rand.New(rand.NewSource(1)),
	}

	_, err := c.Run(context.Background(), &types.NarrationAsset{Path: "voice.mp3", DurationSec: 30}, "out.mp4")
	if !errors.Is(err, ErrCompositionFailed) {
		t.Errorf("Run() error = %v, want ErrCompositionFailed", err)
	}
}

func TestRunTwoPassRender(t *testing.T) {
	dir := t.TempDir()
	bgPath := filepath.Join(dir, "bg.mp4")
	if err := os.WriteFile(bgPath, []byte("fake video"), 0644); err != nil {
		t.Fatal(err)
	}

	ex := &fakeExecutor{probeOut: probeJSON}
	c := &Composer{
		cfg:  testConfig(bgPath),
		exec: ex,
		rng:  rand.New(rand.NewSource(1)),
	}

	outPath := filepath.Join(dir, "final.mp4")
	out, err := c.Run(context.Background(), &types.NarrationAsset{Path: "voice.mp3", DurationSec: 35}, outPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.DurationSec != 35 {
		t.Errorf("output duration = %v, want 35 (narration length)", out.DurationSec)
	}
	if out.Path != outPath {
		t.Errorf("output path = %q, want %q", out.Path, outPath)
	}

	// one probe call plus two ffmpeg passes
	if len(ex.calls) != 3 {
		t.Fatalf("got %d executor calls, want 3", len(ex.calls))
	}
	if ex.calls[0][0] != "ffprobe" {
		t.Errorf("first call = %q, want ffprobe", ex.calls[0][0])
	}
	prepare := strings.Join(ex.calls[1], " ")
	if !strings.Contains(prepare, "-an") || !strings.Contains(prepare, "-stream_loop 4") {
		t.Errorf("prepare pass missing expected args: %s", prepare)
	}
	mux := strings.Join(ex.calls[2], " ")
	if !strings.Contains(mux, "-c:v copy") || !strings.Contains(mux, outPath) {
		t.Errorf("mux pass missing expected args: %s", mux)
	}
}

func TestRunRenderError(t *testing.T) {
	dir := t.TempDir()
	bgPath := filepath.Join(dir, "bg.mp4")
	if err := os.WriteFile(bgPath, []byte("fake video"), 0644); err != nil {
		t.Fatal(err)
	}

	ex := &fakeExecutor{probeOut: probeJSON, ffErr: errors.New("boom")}
	c := &Composer{
		cfg:  testConfig(bgPath),
		exec: ex,
		rng:  rand.New(rand.NewSource(1)),
	}

	_, err := c.Run(context.Background(), &types.NarrationAsset{Path: "voice.mp3", DurationSec: 35}, filepath.Join(dir, "final.mp4"))
	if !errors.Is(err, ErrCompositionFailed) {
		t.Errorf("Run() error = %v, want ErrCompositionFailed", err)
	}
}
