package anki

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LauncherConfig controls how the Anki process is found, started and
// stopped. Intervals and attempt counts are explicit so tests can run with
// zero-length sleeps.
type LauncherConfig struct {
	Command string // Anki executable, default "anki"

	PollInterval    time.Duration // delay between reachability probes
	StartupAttempts int           // probes after spawning Anki ourselves
	ProcessAttempts int           // probes when a foreign Anki process exists
	SettleTime      time.Duration // extra wait after AnkiConnect first answers
	StopTimeout     time.Duration // graceful termination budget before kill
}

// DefaultLauncherConfig returns the production timing.
func DefaultLauncherConfig() LauncherConfig {
	return LauncherConfig{
		Command:         "anki",
		PollInterval:    time.Second,
		StartupAttempts: 30,
		ProcessAttempts: 10,
		SettleTime:      5 * time.Second,
		StopTimeout:     5 * time.Second,
	}
}

// Launcher establishes that AnkiConnect is reachable, starting Anki itself
// when no instance is running, and tears down only what it started.
type Launcher struct {
	client *Client
	cfg    LauncherConfig

	// processRunning probes the OS process table. Overridable for tests.
	processRunning func() bool

	cmd     *exec.Cmd
	started bool
}

// NewLauncher creates a launcher probing through client.
func NewLauncher(client *Client, cfg LauncherConfig) *Launcher {
	return &Launcher{
		client:         client,
		cfg:            cfg,
		processRunning: ankiProcessRunning,
	}
}

// Started reports whether this launcher spawned the Anki process itself.
func (l *Launcher) Started() bool {
	return l.started
}

// Ensure makes the AnkiConnect endpoint reachable or fails. Three cases:
// already reachable; a foreign Anki process is still booting; no Anki at all,
// in which case one is spawned headless.
func (l *Launcher) Ensure(ctx context.Context) error {
	if l.client.Ping(ctx) {
		log.Info().Msg("Anki is already running")
		return nil
	}

	if l.processRunning() {
		log.Info().Msg("Anki process found, waiting for AnkiConnect")
		if l.waitReachable(ctx, l.cfg.ProcessAttempts) {
			return nil
		}

		return fmt.Errorf("Anki is running but AnkiConnect did not become reachable")
	}

	return l.start(ctx)
}

func (l *Launcher) start(ctx context.Context) error {
	log.Info().Str("command", l.cfg.Command).Msg("starting Anki")

	cmd := exec.Command(l.cfg.Command)
	// Headless Qt with GPU acceleration off, so Anki boots on a machine
	// without a display server.
	cmd.Env = append(os.Environ(),
		"QT_QPA_PLATFORM=offscreen",
		"QTWEBENGINE_DISABLE_SANDBOX=1",
		"QTWEBENGINE_CHROMIUM_FLAGS=--disable-gpu --disable-software-rasterizer --disable-dev-shm-usage",
	)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return errors.Wrap(err, "Anki executable not found, is Anki installed?")
		}

		return errors.Wrap(err, "failed to start Anki")
	}

	l.cmd = cmd
	l.started = true

	if !l.waitReachable(ctx, l.cfg.StartupAttempts) {
		return fmt.Errorf("Anki started (PID %d) but AnkiConnect did not become reachable", cmd.Process.Pid)
	}

	log.Info().Int("pid", cmd.Process.Pid).Msg("Anki started, waiting for full initialization")
	// AnkiConnect answers before Anki finishes loading the collection in
	// offscreen mode.
	time.Sleep(l.cfg.SettleTime)

	return nil
}

func (l *Launcher) waitReachable(ctx context.Context, attempts int) bool {
	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(l.cfg.PollInterval):
		}

		if l.client.Ping(ctx) {
			return true
		}
	}

	return false
}

// Shutdown syncs and terminates the Anki instance, but only if this launcher
// started it. A pre-existing Anki is left untouched. Safe to call on every
// exit path.
func (l *Launcher) Shutdown(ctx context.Context) {
	if !l.started || l.cmd == nil {
		return
	}

	if err := l.client.Sync(ctx); err != nil {
		log.Warn().Err(err).Msg("could not sync Anki before shutdown")
	} else {
		log.Info().Msg("Anki sync completed")
	}

	log.Info().Int("pid", l.cmd.Process.Pid).Msg("terminating Anki process")
	if err := l.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = l.cmd.Process.Kill()
		_ = l.cmd.Wait()
		return
	}

	done := make(chan error, 1)
	go func() { done <- l.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(l.cfg.StopTimeout):
		log.Warn().Msg("force killing Anki process")
		_ = l.cmd.Process.Kill()
		<-done
	}
}

// ankiProcessRunning checks the OS process table for a running Anki.
func ankiProcessRunning() bool {
	return exec.Command("pgrep", "-x", "anki").Run() == nil
}
