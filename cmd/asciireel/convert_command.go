package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"asciireel/internal/config"
	"asciireel/internal/convert"
	"asciireel/internal/history"
	"asciireel/internal/logging"
	"asciireel/internal/render"
	"asciireel/internal/services"
	"asciireel/internal/terminal"
)

type convertOptions struct {
	input     string
	outputDir string
	fps       float64
	width     int
	height    int
	autoSize  bool
	palette   string
	invert    bool
	clean     bool
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a video into a directory of ASCII frames",
		Long: `Decode a video, keep frames at the target rate, and write each kept frame
as a text file under <output-dir>/<second>/<frame>.txt.

Examples:
  asciireel convert -i clip.mp4
  asciireel convert -i clip.mp4 -o frames --fps 24 --auto-size
  asciireel convert -i clip.mp4 --palette blocks --invert --clean`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "Video file to convert")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory receiving the frame store (default from config)")
	flags.Float64VarP(&opts.fps, "fps", "f", 0, "Target frames per second (default from config)")
	flags.IntVarP(&opts.width, "width", "W", 0, "Frame width in characters (default from config)")
	flags.IntVarP(&opts.height, "height", "H", 0, "Frame height in lines (default from config)")
	flags.BoolVarP(&opts.autoSize, "auto-size", "A", false, "Size frames to the current terminal")
	flags.StringVar(&opts.palette, "palette", "", "Character palette: "+strings.Join(render.PaletteNames(), ", "))
	flags.BoolVar(&opts.invert, "invert", false, "Use dense characters for dark pixels")
	flags.BoolVar(&opts.clean, "clean", false, "Remove existing frames from the output directory first")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runConvert(cmd *cobra.Command, ctx *commandContext, opts convertOptions) error {
	started := time.Now()
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger, err := ctx.logger(logging.WithConsole(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	req, err := buildConvertRequest(cmd, cfg, opts, logger)
	if err != nil {
		return err
	}

	journal := ctx.beginRun(cmd.Context(), logger, history.KindConvert, req.Input, req.OutputDir, req.FPS)
	runCtx := services.WithStage(services.WithRunID(cmd.Context(), journal.id()), "convert")
	logger = logging.WithContext(runCtx, logger)

	runCtx, stop := signal.NotifyContext(runCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	progress := newProgressLine(out)
	pipeline := convert.New(
		convert.WithLogger(logger),
		convert.WithProgress(progress.update),
	)
	summary, runErr := pipeline.Run(runCtx, req)
	progress.finish()

	journal.finish(runCtx, history.Outcome{
		Err:           runErr,
		FramesScanned: summary.Scanned,
		FramesEmitted: summary.Emitted,
		FramesSkipped: summary.Skipped,
	})

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintf(out, "Conversion interrupted after %s frames.\n", formatCount(summary.Emitted))
			printElapsed(out, started)
			return nil
		}
		return runErr
	}

	fmt.Fprintln(out, renderConvertSummary(summary))
	printElapsed(out, started)
	return nil
}

// buildConvertRequest merges flags over config defaults. Flags win only when
// set explicitly.
func buildConvertRequest(cmd *cobra.Command, cfg *config.Config, opts convertOptions, logger *slog.Logger) (convert.Request, error) {
	flags := cmd.Flags()
	req := convert.Request{
		OutputDir:     cfg.Convert.OutputDir,
		FPS:           cfg.Convert.FPS,
		Width:         cfg.Convert.Width,
		Height:        cfg.Convert.Height,
		Invert:        cfg.Convert.Invert || opts.invert,
		Clean:         opts.clean,
		FFmpegBinary:  cfg.Convert.FFmpegBinary,
		FFprobeBinary: cfg.Convert.FFprobeBinary,
		LockDir:       cfg.LockDir(),
	}

	input, err := config.ExpandPath(strings.TrimSpace(opts.input))
	if err != nil {
		return req, fmt.Errorf("resolve input path: %w", err)
	}
	req.Input = input

	if flags.Changed("output-dir") {
		req.OutputDir = opts.outputDir
	}
	if req.OutputDir, err = config.ExpandPath(strings.TrimSpace(req.OutputDir)); err != nil {
		return req, fmt.Errorf("resolve output directory: %w", err)
	}
	if flags.Changed("fps") {
		req.FPS = opts.fps
	}
	if flags.Changed("width") {
		req.Width = opts.width
	}
	if flags.Changed("height") {
		req.Height = opts.height
	}
	if opts.autoSize || cfg.Convert.AutoSize {
		applyTerminalSize(&req, !flags.Changed("width"), !flags.Changed("height"), logger)
	}

	paletteName := cfg.Convert.Palette
	if flags.Changed("palette") {
		paletteName = strings.ToLower(strings.TrimSpace(opts.palette))
	}
	palette, ok := render.LookupPalette(paletteName)
	if !ok {
		return req, services.Wrap(services.ErrValidation, "convert", "select palette",
			fmt.Sprintf("unknown palette %q (choose from %s)", paletteName, strings.Join(render.PaletteNames(), ", ")), nil)
	}
	req.Palette = palette
	return req, nil
}

// applyTerminalSize fills the requested dimensions from the terminal. One
// row is left free so the last frame line never scrolls the screen.
func applyTerminalSize(req *convert.Request, setWidth, setHeight bool, logger *slog.Logger) {
	if !setWidth && !setHeight {
		return
	}
	cols, rows, err := terminal.Size(os.Stdout)
	if err != nil {
		logging.WarnWithContext(logger, "terminal size unavailable; using configured frame size", "convert_terminal_size_failed",
			logging.Error(err),
			logging.Int("width", req.Width),
			logging.Int("height", req.Height),
			logging.String(logging.FieldErrorHint, "pass --width and --height explicitly"),
			logging.String(logging.FieldImpact, "frames may not fit the terminal"),
		)
		return
	}
	if setWidth {
		req.Width = cols
	}
	if setHeight {
		req.Height = max(rows-1, 1)
	}
	logger.Debug("frame size from terminal", logging.Int("width", req.Width), logging.Int("height", req.Height))
}

func renderConvertSummary(s convert.Summary) string {
	rows := [][]string{
		{"Input", s.Input},
		{"Output directory", s.OutputDir},
		{"Source FPS", formatFPS(s.SourceFPS)},
		{"Target FPS", formatFPS(s.TargetFPS)},
		{"Keep every", fmt.Sprintf("%s source frames", formatCount(s.Threshold))},
		{"Input streams", fmt.Sprintf("%d video, %d audio", s.VideoStreams, s.AudioStreams)},
		{"Frames scanned", formatCount(s.Scanned)},
		{"Frames emitted", formatCount(s.Emitted)},
		{"Frames skipped", formatCount(s.Skipped)},
		{"Seconds written", formatCount(int64(s.Buckets))},
	}
	if s.Duration > 0 {
		rows = append(rows, []string{"Source duration", formatElapsed(s.Duration)})
	}
	if s.ExpectedFrames > 0 {
		rows = append(rows, []string{"Expected frames", formatCount(s.ExpectedFrames)})
	}
	if s.UnknownPTS > 0 {
		rows = append(rows, []string{"No timestamp", formatCount(s.UnknownPTS)})
	}
	if s.Failed > 0 {
		rows = append(rows, []string{"Frames failed", formatCount(s.Failed)})
	}
	if s.Cleaned > 0 {
		rows = append(rows, []string{"Stale entries removed", formatCount(int64(s.Cleaned))})
	}
	rows = append(rows, []string{"Conversion time", formatElapsed(s.Elapsed)})
	return renderTable([]string{"Conversion", "Result"}, rows, []columnAlignment{alignLeft, alignRight})
}

// progressLine prints the running emitted-frame count. On a terminal the
// line is rewritten in place.
type progressLine struct {
	out     io.Writer
	inPlace bool
	printed bool
}

func newProgressLine(out io.Writer) *progressLine {
	return &progressLine{out: out, inPlace: shouldColorize(out)}
}

func (p *progressLine) update(emitted int64) {
	p.printed = true
	if p.inPlace {
		fmt.Fprintf(p.out, "\rProcessed ASCII frames: %s", formatCount(emitted))
		return
	}
	fmt.Fprintf(p.out, "Processed ASCII frames: %s\n", formatCount(emitted))
}

func (p *progressLine) finish() {
	if p.printed && p.inPlace {
		fmt.Fprintln(p.out)
	}
}
