package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile   string
	DataDir   string
	VocabFile string
	LogLevel  string

	// Audio generation flags
	AudioDir     string
	TTSProvider  string
	VoiceID      string
	TTSModel     string
	OutputFormat string

	// OpenAI TTS flags
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string

	// Import flags
	ProgressFile string
	DeckName     string
	BatchSize    int
	CSSFile      string
	NotifyLog    string
	AnkiURL      string
	AnkiCommand  string
	APKGFile     string
	NoNotify     bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		DataDir:      ".",
		VocabFile:    "levantine_vocabulary.json",
		LogLevel:     "info",
		AudioDir:     "audio",
		TTSProvider:  "elevenlabs",
		VoiceID:      "drMurExmkWVIH5nW8snR",
		TTSModel:     "eleven_flash_v2_5",
		OutputFormat: "mp3_44100_128",
		OpenAIModel:  "gpt-4o-mini-tts",
		OpenAIVoice:  "alloy",
		OpenAISpeed:  1.0,
		ProgressFile: "remaining_words.json",
		DeckName:     "Arabic",
		BatchSize:    10,
		CSSFile:      "anki_card_style.css",
		NotifyLog:    "notifs.log",
		AnkiURL:      "http://localhost:8765",
		AnkiCommand:  "anki",
	}
}
