package transcribe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/linuxmatters/speakscore/internal/audio"
)

// Google speech API v2 (the endpoint Chromium uses for web speech input).
// POST raw 16-bit PCM, get newline-delimited JSON back.
const (
	DefaultGoogleURL = "http://www.google.com/speech-api/v2/recognize"
	googleSampleRate = 16000
)

// ensure this satisfies the interface
var _ Transcriber = (*Google)(nil)

// GoogleConfig configures the Google backend
type GoogleConfig struct {
	URL      string // Defaults to DefaultGoogleURL
	Key      string
	Language string // BCP-47 tag, e.g. en-US
	Client   *http.Client
}

// Google submits audio to the Google speech API v2
type Google struct {
	url      string
	key      string
	language string
	client   *http.Client
}

// NewGoogle creates a Google backend
func NewGoogle(cfg GoogleConfig) (*Google, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultGoogleURL
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid url for google backend %s: %w", cfg.URL, err)
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return &Google{url: cfg.URL, key: cfg.Key, language: cfg.Language, client: cfg.Client}, nil
}

type googleAlternative struct {
	Transcript *string  `json:"transcript"`
	Confidence *float64 `json:"confidence"`
}

type googleResult struct {
	Alternative []googleAlternative `json:"alternative"`
	Final       bool                `json:"final"`
}

type googleResponse struct {
	Result      []googleResult `json:"result"`
	ResultIndex int            `json:"result_index"`
}

// Transcribe sends the whole recording and waits for the final hypothesis.
func (g *Google) Transcribe(ctx context.Context, audioPath string) Result {
	clip, err := audio.Load(audioPath)
	if err != nil {
		return Unavailable(fmt.Errorf("google: %w: %w", ErrAudioInput, err))
	}
	clip, err = clip.Resample(googleSampleRate)
	if err != nil {
		return Unavailable(fmt.Errorf("google: %w: %w", ErrAudioInput, err))
	}

	q := url.Values{}
	q.Set("client", "chromium")
	q.Set("lang", g.language)
	q.Set("key", g.key)
	q.Set("pFilter", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"?"+q.Encode(), bytes.NewReader(clip.PCM16Mono()))
	if err != nil {
		return Unavailable(err)
	}
	req.Header.Set("Content-Type", "audio/l16; rate="+strconv.Itoa(googleSampleRate))

	resp, err := g.client.Do(req)
	if err != nil {
		return Unavailable(fmt.Errorf("google: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Unavailable(fmt.Errorf("google http %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	text, err := parseGoogleResponse(resp.Body)
	if err != nil {
		return Unavailable(fmt.Errorf("google: %w", err))
	}
	if text == "" {
		return Unintelligible(nil)
	}

	slog.Debug("google transcription", "path", audioPath, "language", g.language, "chars", len(text))
	return OK(text)
}

// parseGoogleResponse picks from the first non-empty result the alternative
// with the highest confidence, or the first when none carry one. An empty
// string means the service heard nothing it could transcribe.
func parseGoogleResponse(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var gr googleResponse
		if err := json.Unmarshal([]byte(line), &gr); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(gr.Result) == 0 {
			continue
		}

		alts := gr.Result[0].Alternative
		if len(alts) == 0 {
			return "", nil
		}
		best := bestAlternative(alts)
		if best.Transcript == nil {
			return "", nil
		}
		return *best.Transcript, nil
	}
	return "", scanner.Err()
}

func bestAlternative(alts []googleAlternative) googleAlternative {
	best := alts[0]
	for _, a := range alts {
		if a.Confidence == nil {
			continue
		}
		if best.Confidence == nil || *a.Confidence > *best.Confidence {
			best = a
		}
	}
	return best
}
