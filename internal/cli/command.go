package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qamous/levantanki/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "levantanki",
		Short: "Levantine Arabic Anki automation",
		Long: `levantanki maintains a daily Levantine Arabic vocabulary routine.

It pre-generates pronunciation audio for a fixed vocabulary list via
ElevenLabs (or OpenAI TTS) and injects a random batch of bidirectional
flashcards into Anki through the AnkiConnect add-on, tracking which words
remain in a progress file.

Examples:
  levantanki audio                  # Render missing audio clips
  levantanki import                 # Add today's batch of words to Anki
  levantanki import --apkg out.apkg # Export remaining words as a package`,
		Version: internal.Version,
	}

	rootCmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.levantanki.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.DataDir, "data-dir", flags.DataDir, "Directory holding vocabulary, progress and audio files")
	rootCmd.PersistentFlags().StringVar(&flags.VocabFile, "vocab", flags.VocabFile, "Vocabulary file (relative to data dir)")
	rootCmd.PersistentFlags().StringVar(&flags.AudioDir, "audio-dir", flags.AudioDir, "Audio directory (relative to data dir)")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level (trace, debug, info, warn, error)")

	viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("data.vocab", rootCmd.PersistentFlags().Lookup("vocab"))
	viper.BindPFlag("data.audio_dir", rootCmd.PersistentFlags().Lookup("audio-dir"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	return rootCmd
}

// CreateAudioCommand creates the audio generation subcommand
func CreateAudioCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Generate pronunciation audio for the vocabulary list",
		Long: `audio renders one speech clip per vocabulary entry via the configured
text-to-speech provider, writing audio/NNN.mp3 files. Entries whose clip
already exists are skipped, so the command is safe to re-run after a
partial failure.`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringVar(&flags.TTSProvider, "tts-provider", flags.TTSProvider, "TTS provider: elevenlabs or openai")
	cmd.Flags().StringVar(&flags.VoiceID, "voice", flags.VoiceID, "ElevenLabs voice ID")
	cmd.Flags().StringVar(&flags.TTSModel, "tts-model", flags.TTSModel, "ElevenLabs model ID")
	cmd.Flags().StringVar(&flags.OutputFormat, "output-format", flags.OutputFormat, "ElevenLabs output encoding")
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0)")
	cmd.Flags().StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts")

	viper.BindPFlag("audio.provider", cmd.Flags().Lookup("tts-provider"))
	viper.BindPFlag("audio.voice", cmd.Flags().Lookup("voice"))
	viper.BindPFlag("audio.model", cmd.Flags().Lookup("tts-model"))
	viper.BindPFlag("audio.output_format", cmd.Flags().Lookup("output-format"))
	viper.BindPFlag("audio.openai_model", cmd.Flags().Lookup("openai-model"))
	viper.BindPFlag("audio.openai_voice", cmd.Flags().Lookup("openai-voice"))
	viper.BindPFlag("audio.openai_speed", cmd.Flags().Lookup("openai-speed"))

	return cmd
}

// CreateImportCommand creates the card import subcommand
func CreateImportCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Add a daily batch of vocabulary cards to Anki",
		Long: `import starts Anki if necessary, provisions the deck and the
bidirectional note type, picks a random batch of not-yet-imported words,
uploads their audio clips and creates one note (two cards) per word.
Imported words are removed from the progress file; when it is empty the
vocabulary is complete.

With --apkg the remaining words are instead written to an Anki package
file and Anki is never contacted.`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringVar(&flags.ProgressFile, "progress", flags.ProgressFile, "Progress file (relative to data dir)")
	cmd.Flags().StringVar(&flags.DeckName, "deck", flags.DeckName, "Destination deck name")
	cmd.Flags().IntVar(&flags.BatchSize, "batch-size", flags.BatchSize, "Words to add per run")
	cmd.Flags().StringVar(&flags.CSSFile, "css", flags.CSSFile, "Card stylesheet file (relative to data dir)")
	cmd.Flags().StringVar(&flags.NotifyLog, "log-file", flags.NotifyLog, "Notification log file (relative to data dir)")
	cmd.Flags().StringVar(&flags.AnkiURL, "anki-url", flags.AnkiURL, "AnkiConnect endpoint")
	cmd.Flags().StringVar(&flags.AnkiCommand, "anki-command", flags.AnkiCommand, "Anki executable to spawn when not running")
	cmd.Flags().StringVar(&flags.APKGFile, "apkg", "", "Export remaining words to this .apkg file instead of using AnkiConnect")
	cmd.Flags().BoolVar(&flags.NoNotify, "no-notify", false, "Disable desktop notifications")

	viper.BindPFlag("import.deck", cmd.Flags().Lookup("deck"))
	viper.BindPFlag("import.batch_size", cmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("import.anki_url", cmd.Flags().Lookup("anki-url"))
	viper.BindPFlag("import.anki_command", cmd.Flags().Lookup("anki-command"))

	return cmd
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".levantanki")
	}

	viper.SetEnvPrefix("LEVANTANKI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetElevenLabsKey retrieves the ElevenLabs API key from environment or config
func GetElevenLabsKey() string {
	if key := os.Getenv("ELEVENLABS_API_KEY"); key != "" {
		return key
	}

	return viper.GetString("audio.elevenlabs_key")
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	return viper.GetString("audio.openai_key")
}

// DataPath resolves a file name relative to the data directory. Absolute
// paths are returned unchanged.
func (f *Flags) DataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(f.DataDir, name)
}
