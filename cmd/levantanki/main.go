package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qamous/levantanki/internal/anki"
	"github.com/qamous/levantanki/internal/audio"
	"github.com/qamous/levantanki/internal/cli"
	"github.com/qamous/levantanki/internal/logging"
	"github.com/qamous/levantanki/internal/notify"
	"github.com/qamous/levantanki/internal/vocab"
)

const ankiCallTimeout = 10 * time.Second

func main() {
	// API keys may live in a .env file next to the data files.
	_ = godotenv.Load()
	logging.SetupConsoleLogger()

	flags := cli.NewFlags()

	rootCmd := cli.CreateRootCommand(flags)
	audioCmd := cli.CreateAudioCommand(flags)
	importCmd := cli.CreateImportCommand(flags)
	rootCmd.AddCommand(audioCmd, importCmd)

	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
		if err := logging.SetLogLevel(flags.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", flags.LogLevel, err)
		}
	})

	audioCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runAudio(cmd.Context(), flags)
	}
	importCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), flags)
	}

	// Errors are logged where they occur; cobra only sets the exit code.
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

// runAudio renders missing audio clips for the whole vocabulary.
func runAudio(ctx context.Context, flags *cli.Flags) error {
	cfg := audio.DefaultProviderConfig()
	cfg.Provider = flags.TTSProvider
	cfg.ElevenLabsKey = cli.GetElevenLabsKey()
	cfg.VoiceID = flags.VoiceID
	cfg.ModelID = flags.TTSModel
	cfg.OutputFormat = flags.OutputFormat
	cfg.OpenAIKey = cli.GetOpenAIKey()
	cfg.OpenAIModel = flags.OpenAIModel
	cfg.OpenAIVoice = flags.OpenAIVoice
	cfg.OpenAISpeed = flags.OpenAISpeed
	if flags.OpenAIInstruction != "" {
		cfg.OpenAIInstruction = flags.OpenAIInstruction
	}

	provider, err := audio.NewProvider(cfg)
	if err != nil {
		return err
	}

	entries, err := vocab.LoadVocabulary(flags.DataPath(flags.VocabFile))
	if err != nil {
		return err
	}

	log.Info().Int("words", len(entries)).Str("provider", provider.Name()).
		Msg("generating vocabulary audio")

	_, err = audio.NewGenerator(provider, flags.DataPath(flags.AudioDir)).Run(ctx, entries)

	return err
}

// runImport adds a daily batch of words to Anki, or exports the remaining
// words as an .apkg package.
func runImport(ctx context.Context, flags *cli.Flags) error {
	var notifier notify.Notifier = notify.NewDesktop("Anki Arabic", flags.DataPath(flags.NotifyLog))
	if flags.NoNotify {
		notifier = notify.Nop{}
	}

	err := doImport(ctx, flags, notifier)
	if err != nil {
		notifier.Notify("Arabic Words Error",
			fmt.Sprintf("Failed to add words: %v", err), notify.UrgencyCritical)
	}

	return err
}

func doImport(ctx context.Context, flags *cli.Flags, notifier notify.Notifier) error {
	css, err := anki.LoadStylesheet(flags.DataPath(flags.CSSFile))
	if err != nil {
		return err
	}

	store, err := vocab.LoadStore(flags.DataPath(flags.ProgressFile), flags.DataPath(flags.VocabFile))
	if err != nil {
		return err
	}

	audioDir := flags.DataPath(flags.AudioDir)

	if flags.APKGFile != "" {
		return exportAPKG(flags, store, css, audioDir)
	}

	client := anki.NewClient(flags.AnkiURL, ankiCallTimeout)

	launcherCfg := anki.DefaultLauncherConfig()
	launcherCfg.Command = flags.AnkiCommand
	launcher := anki.NewLauncher(client, launcherCfg)
	// Sync and terminate a self-started Anki on every exit path.
	defer launcher.Shutdown(context.WithoutCancel(ctx))

	if err := launcher.Ensure(ctx); err != nil {
		return err
	}

	version, err := client.Version(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("version", version).Msg("connected to AnkiConnect")

	if err := anki.EnsureDeck(ctx, client, flags.DeckName); err != nil {
		return err
	}
	if err := anki.EnsureModel(ctx, client, css); err != nil {
		return err
	}

	importer := anki.NewImporter(client, store, notifier, anki.ImporterConfig{
		Deck:      flags.DeckName,
		BatchSize: flags.BatchSize,
		AudioDir:  audioDir,
		Tags:      []string{"arabic", "levantine"},
	})

	_, err = importer.Run(ctx)

	return err
}

func exportAPKG(flags *cli.Flags, store *vocab.Store, css, audioDir string) error {
	if err := store.Validate(); err != nil {
		return err
	}

	if store.Len() == 0 {
		log.Info().Msg("no words remaining, nothing to export")
		return nil
	}

	exporter := anki.NewAPKGExporter(flags.DeckName, css, audioDir)
	for _, entry := range store.Remaining() {
		exporter.Add(entry)
	}

	return exporter.Export(flags.APKGFile)
}
