package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// OpenAI-compatible speech-to-text via audio/transcriptions.
// Works against api.openai.com and self-hosted whisper servers exposing the same route.
const (
	DefaultWhisperURL   = "https://api.openai.com/v1"
	DefaultWhisperModel = "whisper-1"
)

// ensure this satisfies the interface
var _ Transcriber = (*Whisper)(nil)

// WhisperConfig configures the Whisper backend
type WhisperConfig struct {
	BaseURL  string // Defaults to DefaultWhisperURL
	APIKey   string
	Model    string // Defaults to DefaultWhisperModel
	Language string // ISO-639-1 hint, optional
	Client   *http.Client
}

// Whisper submits audio to an OpenAI-compatible transcription endpoint
type Whisper struct {
	endpoint string
	apiKey   string
	model    string
	language string
	client   *http.Client
}

// NewWhisper creates a Whisper backend
func NewWhisper(cfg WhisperConfig) (*Whisper, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWhisperURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultWhisperModel
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return &Whisper{
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + "/audio/transcriptions",
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		language: cfg.Language,
		client:   cfg.Client,
	}, nil
}

type whisperResp struct {
	Text string `json:"text"`
}

// Transcribe uploads the file as multipart form data.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) Result {
	f, err := os.Open(audioPath)
	if err != nil {
		return Unavailable(fmt.Errorf("whisper: %w: %w", ErrAudioInput, err))
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", w.model); err != nil {
		return Unavailable(err)
	}
	if w.language != "" {
		if err := mw.WriteField("language", w.language); err != nil {
			return Unavailable(err)
		}
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return Unavailable(err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return Unavailable(fmt.Errorf("whisper: %w: %w", ErrAudioInput, err))
	}
	if err := mw.Close(); err != nil {
		return Unavailable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, &body)
	if err != nil {
		return Unavailable(err)
	}
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return Unavailable(fmt.Errorf("whisper: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Unavailable(fmt.Errorf("whisper http %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	var wr whisperResp
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return Unavailable(fmt.Errorf("whisper: decode response: %w", err))
	}

	text := strings.TrimSpace(wr.Text)
	if text == "" {
		return Unintelligible(nil)
	}

	slog.Debug("whisper transcription", "path", audioPath, "model", w.model, "chars", len(text))
	return OK(text)
}
