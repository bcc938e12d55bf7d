package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"asciireel/internal/audio"
	"asciireel/internal/config"
	"asciireel/internal/history"
	"asciireel/internal/logging"
	"asciireel/internal/player"
	"asciireel/internal/services"
	"asciireel/internal/store"
	"asciireel/internal/terminal"
)

type playOptions struct {
	framesDir string
	fps       float64
	audioPath string
	loop      bool
	sync      bool
}

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play an ASCII frame directory in the terminal",
		Long: `Load every frame of a frame store and draw them at a fixed rate on the
alternate screen. Press Ctrl+C to stop.

Examples:
  asciireel play
  asciireel play -d frames --fps 24 -a soundtrack.mp3
  asciireel play -d frames --gif --sync -a loop.wav`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.framesDir, "frames-dir", "d", "", "Frame store to play (default from config)")
	flags.Float64VarP(&opts.fps, "fps", "f", 0, "Playback frames per second (default from config)")
	flags.StringVarP(&opts.audioPath, "audio", "a", "", "Audio file played alongside the frames (mp3, wav, flac, ogg)")
	flags.BoolVarP(&opts.loop, "gif", "g", false, "Loop playback until interrupted")
	flags.BoolVarP(&opts.sync, "sync", "s", false, "Restart the audio at every loop (requires --gif)")

	return cmd
}

func runPlay(cmd *cobra.Command, ctx *commandContext, opts playOptions) error {
	started := time.Now()
	if opts.sync && !opts.loop {
		return services.Wrap(services.ErrValidation, "play", "validate flags", "--sync requires --gif", nil)
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	framesDir := cfg.Play.FramesDir
	if cmd.Flags().Changed("frames-dir") {
		framesDir = opts.framesDir
	}
	if framesDir, err = config.ExpandPath(strings.TrimSpace(framesDir)); err != nil {
		return fmt.Errorf("resolve frames directory: %w", err)
	}
	fps := cfg.Play.FPS
	if cmd.Flags().Changed("fps") {
		fps = opts.fps
	}
	audioPath := strings.TrimSpace(opts.audioPath)
	if audioPath != "" {
		if audioPath, err = config.ExpandPath(audioPath); err != nil {
			return fmt.Errorf("resolve audio path: %w", err)
		}
	}

	// Log records go to the log file only; the terminal belongs to the frames.
	logger, err := ctx.logger(logging.WithoutConsole())
	if err != nil {
		return err
	}
	// Discovery runs before the screen switch, so its warnings can use stderr.
	scanLogger, err := ctx.logger(logging.WithConsole(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	journal := ctx.beginRun(cmd.Context(), logger, history.KindPlay, audioPath, framesDir, fps)
	runCtx := services.WithStage(services.WithRunID(cmd.Context(), journal.id()), "play")
	logger = logging.WithContext(runCtx, logger)
	scanLogger = logging.WithContext(runCtx, scanLogger)

	runCtx, stop := signal.NotifyContext(runCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var frames int
	playErr := func() error {
		fmt.Fprintf(out, "Scanning frames directory: %s\n", framesDir)
		seq, err := store.Discover(runCtx, afero.NewOsFs(), framesDir, scanLogger)
		if err != nil {
			return err
		}
		frames = len(seq)
		fmt.Fprintf(out, "Found %s frames. Target FPS: %s\n", formatCount(int64(frames)), formatFPS(fps))

		options := []player.Option{player.WithLogger(logger)}
		if audioPath != "" {
			output := audio.NewOutput(audio.WithBuffer(time.Duration(cfg.Play.AudioBufferMillis) * time.Millisecond))
			defer output.Close()
			options = append(options, player.WithAudio(output))
		}

		screen := terminal.NewScreen(out)
		scheduler, err := player.New(screen, player.Options{
			FPS:       fps,
			Loop:      opts.loop,
			Sync:      opts.sync,
			AudioPath: audioPath,
			LoopDelay: time.Duration(cfg.Play.LoopDelayMillis) * time.Millisecond,
		}, options...)
		if err != nil {
			return err
		}
		if err := scheduler.Load(runCtx, seq); err != nil {
			return err
		}

		guard, err := terminal.Enter(out)
		if err != nil {
			return fmt.Errorf("prepare terminal: %w", err)
		}
		defer guard.Restore()
		return scheduler.Play(runCtx)
	}()

	journal.finish(runCtx, history.Outcome{Err: playErr, FramesScanned: int64(frames)})

	switch {
	case playErr == nil:
		fmt.Fprintln(out, "\nPlayback finished.")
	case errors.Is(playErr, context.Canceled):
		fmt.Fprintln(out, "\nPlayback interrupted.")
	default:
		logging.ErrorWithContext(logger, "playback failed", "play_failed",
			logging.Error(playErr),
			logging.ErrorKind(playErr),
			logging.Int("frames", frames),
		)
		return playErr
	}
	printElapsed(out, started)
	return nil
}
