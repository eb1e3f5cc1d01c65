package audio

import (
	"context"
	"fmt"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// GenerateAudio generates audio from text and saves it to the specified file
	GenerateAudio(ctx context.Context, text string, outputFile string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds common configuration for audio providers
type Config struct {
	Provider     string // Provider name: "elevenlabs" or "openai"
	OutputFormat string // Requested encoding, e.g. "mp3_44100_128"

	// ElevenLabs-specific settings
	ElevenLabsKey string
	VoiceID       string // Fixed voice used for every entry
	ModelID       string // e.g. "eleven_flash_v2_5"
	Stability     float64
	Style         float64

	// OpenAI-specific settings
	OpenAIKey         string
	OpenAIModel       string // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string // Voice instructions for gpt-4o-mini-tts
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:     "elevenlabs",
		OutputFormat: "mp3_44100_128",
		VoiceID:      "drMurExmkWVIH5nW8snR",
		ModelID:      "eleven_flash_v2_5",
		// Maximum stability and no style exaggeration keeps single-word
		// pronunciations consistent across the whole vocabulary.
		Stability:         1.0,
		Style:             0.0,
		OpenAIModel:       "gpt-4o-mini-tts",
		OpenAIVoice:       "alloy",
		OpenAISpeed:       1.0,
		OpenAIInstruction: "You are speaking Levantine Arabic. Pronounce the Arabic text with authentic Levantine phonetics. Speak slowly and clearly for language learners.",
	}
}

// NewProvider creates the appropriate audio provider based on configuration
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	switch config.Provider {
	case "elevenlabs":
		if config.ElevenLabsKey == "" {
			return nil, fmt.Errorf("ElevenLabs API key is required")
		}
		return NewElevenLabsProvider(config)

	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)

	default:
		return nil, fmt.Errorf("unknown audio provider: %s", config.Provider)
	}
}
