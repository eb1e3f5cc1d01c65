package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
)

const defaultElevenLabsBaseURL = "https://api.elevenlabs.io"

// ElevenLabsProvider implements Provider for the ElevenLabs text-to-speech
// API. Requests go through a circuit breaker so that a dead service fails
// fast instead of burning a full timeout on every remaining vocabulary entry.
type ElevenLabsProvider struct {
	config  *Config
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability float64 `json:"stability"`
	Style     float64 `json:"style"`
}

// NewElevenLabsProvider creates a new ElevenLabs TTS provider
func NewElevenLabsProvider(config *Config) (Provider, error) {
	if config.ElevenLabsKey == "" {
		return nil, fmt.Errorf("ElevenLabs API key is required")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "elevenlabs",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &ElevenLabsProvider{
		config:  config,
		baseURL: defaultElevenLabsBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: breaker,
	}, nil
}

// GenerateAudio synthesizes text with the configured voice and writes the raw
// response bytes to outputFile.
func (p *ElevenLabsProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	data, err := p.breaker.Execute(func() (any, error) {
		return p.synthesize(ctx, text)
	})
	if err != nil {
		return errors.Wrapf(err, "ElevenLabs TTS failed for %q", text)
	}

	dir := filepath.Dir(outputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	audio, ok := data.([]byte)
	if !ok || len(audio) == 0 {
		return fmt.Errorf("no audio data received from ElevenLabs")
	}

	if err := os.WriteFile(outputFile, audio, 0644); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	return nil
}

func (p *ElevenLabsProvider) synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: p.config.ModelID,
		VoiceSettings: voiceSettings{
			Stability: p.config.Stability,
			Style:     p.config.Style,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		p.baseURL, p.config.VoiceID, p.config.OutputFormat)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", p.config.ElevenLabsKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(msg))
	}

	return io.ReadAll(resp.Body)
}

// Name returns the provider name
func (p *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

// IsAvailable checks if the ElevenLabs API is configured
func (p *ElevenLabsProvider) IsAvailable() error {
	if p.config.ElevenLabsKey == "" {
		return fmt.Errorf("ElevenLabs API key not configured")
	}

	return nil
}
