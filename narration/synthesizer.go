package narration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/uhwar/reddit-tik-tok-generator/config"
	"github.com/uhwar/reddit-tik-tok-generator/ffmpeg"
	"github.com/uhwar/reddit-tik-tok-generator/types"
)

// ErrSynthesisFailed covers empty input text and speech-service errors
var ErrSynthesisFailed = errors.New("narration synthesis failed")

// chunkLimit is the maximum text length per translate_tts request
const chunkLimit = 200

// Voice selects a Google TTS language and accent host
type Voice struct {
	Name string
	Lang string
	Host string
}

// Voices maps selection keys to the available narration voices
var Voices = map[string]Voice{
	"1": {Name: "US English", Lang: "en", Host: "translate.google.com"},
	"2": {Name: "UK English", Lang: "en", Host: "translate.google.co.uk"},
	"3": {Name: "Australian English", Lang: "en", Host: "translate.google.com.au"},
	"4": {Name: "Indian English", Lang: "en", Host: "translate.google.co.in"},
	"5": {Name: "Canadian English", Lang: "en", Host: "translate.google.ca"},
}

// Synthesizer turns narration text into a spoken MP3 file
type Synthesizer struct {
	cfg        *config.Config
	httpClient *http.Client
	exec       ffmpeg.Executor
}

// NewSynthesizer creates a Synthesizer using the given command executor
// for the ffmpeg post-processing steps
func NewSynthesizer(cfg *config.Config, ex ffmpeg.Executor) *Synthesizer {
	return &Synthesizer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		exec:       ex,
	}
}

// Run synthesizes text into an MP3 at outPath, overwriting any previous
// file there, and measures the rendered duration with ffprobe. Duration is
// never estimated from text length: the same text can produce
// variable-length speech.
func (s *Synthesizer) Run(ctx context.Context, text, outPath string) (*types.NarrationAsset, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty narration text", ErrSynthesisFailed)
	}

	rawPath := outPath + ".raw.mp3"

	var err error
	if ttsCmd := os.Getenv("TTS_COMMAND"); ttsCmd != "" {
		err = s.runCommandEngine(ctx, ttsCmd, text, rawPath)
	} else {
		err = s.googleSynthesize(ctx, text, rawPath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	if s.cfg.Narration.Speed != 1.0 {
		if err := s.speedUp(ctx, rawPath, outPath); err != nil {
			return nil, fmt.Errorf("%w: speed adjust: %v", ErrSynthesisFailed, err)
		}
		_ = os.Remove(rawPath)
	} else {
		if err := os.Rename(rawPath, outPath); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
		}
	}

	dur, err := ffmpeg.AudioDuration(ctx, s.exec, outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: measure duration: %v", ErrSynthesisFailed, err)
	}
	if dur <= 0 {
		return nil, fmt.Errorf("%w: rendered audio has zero duration", ErrSynthesisFailed)
	}

	log.Printf("[narration] rendered %.1fs of speech to %s", dur, outPath)
	return &types.NarrationAsset{Path: outPath, DurationSec: dur}, nil
}

// googleSynthesize fetches MP3 audio chunk by chunk from the Google
// translate TTS endpoint and concatenates the frames into one file.
func (s *Synthesizer) googleSynthesize(ctx context.Context, text, outPath string) error {
	voice, ok := Voices[s.cfg.Narration.Voice]
	if !ok {
		voice = Voices["1"]
	}

	chunks := ChunkText(text, chunkLimit)
	var audio []byte
	for i, chunk := range chunks {
		data, err := s.fetchChunk(ctx, voice, chunk, i, len(chunks))
		if err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio = append(audio, data...)
	}

	return os.WriteFile(outPath, audio, 0644)
}

func (s *Synthesizer) fetchChunk(ctx context.Context, voice Voice, chunk string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", voice.Lang)
	q.Set("q", chunk)
	q.Set("idx", fmt.Sprintf("%d", idx))
	q.Set("total", fmt.Sprintf("%d", total))
	q.Set("textlen", fmt.Sprintf("%d", len([]rune(chunk))))

	reqURL := fmt.Sprintf("https://%s/translate_tts?%s", voice.Host, q.Encode())

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; reddit-tik-tok-generator/0.1)")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			data, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = readErr
			} else if resp.StatusCode != http.StatusOK {
				lastErr = fmt.Errorf("tts endpoint returned %d", resp.StatusCode)
			} else if !strings.HasPrefix(resp.Header.Get("Content-Type"), "audio") {
				lastErr = fmt.Errorf("tts endpoint returned %q, not audio", resp.Header.Get("Content-Type"))
			} else {
				return data, nil
			}
		}
		log.Printf("[narration] TTS attempt %d failed: %v — retrying...", attempt, lastErr)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, lastErr
}

// runCommandEngine shells out to an external TTS program. edge-tts gets
// its own argument shape; anything else is expected to accept
// --text and --output.
func (s *Synthesizer) runCommandEngine(ctx context.Context, ttsCmd, text, outPath string) error {
	ttsCmd = strings.TrimSpace(ttsCmd)

	var err error
	switch {
	case ttsCmd == "edge-tts":
		_, err = s.exec.Execute(ctx, "edge-tts",
			"--voice", "en-US-GuyNeural",
			"--text", text,
			"--write-media", outPath,
		)
	case strings.HasSuffix(ttsCmd, ".py"):
		_, err = s.exec.Execute(ctx, "python3", ttsCmd,
			"--text", text,
			"--output", outPath,
		)
	default:
		_, err = s.exec.Execute(ctx, ttsCmd,
			"--text", text,
			"--output", outPath,
		)
	}
	return err
}

// speedUp re-times the narration with ffmpeg's atempo filter. atempo
// supports 0.5-2.0 per instance; higher speeds chain two filters.
func (s *Synthesizer) speedUp(ctx context.Context, inPath, outPath string) error {
	speed := s.cfg.Narration.Speed
	atempo := fmt.Sprintf("atempo=%.4f", speed)
	if speed > 2.0 {
		atempo = fmt.Sprintf("atempo=2.0,atempo=%.4f", speed/2.0)
	}

	_, err := s.exec.Execute(ctx, "ffmpeg", "-y",
		"-i", inPath,
		"-filter:a", atempo,
		"-vn",
		outPath,
	)
	return err
}

// ChunkText splits text into pieces of at most limit runes, breaking at
// whitespace so no word is cut mid-way. Words longer than the limit are
// hard-split as a last resort.
func ChunkText(text string, limit int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, string(current))
			current = current[:0]
		}
	}

	for _, word := range words {
		runes := []rune(word)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		if len(current) > 0 && len(current)+1+len(runes) > limit {
			flush()
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, runes...)
	}
	flush()
	return chunks
}
