package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"line21/internal/app"
	"line21/internal/controllers/engine"
	"line21/internal/entities"
)

func newRootCommand() *cobra.Command {
	c := app.ConfigFromEnv()

	var (
		outputFlag      string
		formatsFlag     string
		calibrationFlag string
		statsFlag       bool
	)

	cmd := &cobra.Command{
		Use:           "line21 [flags] <videofile>",
		Short:         "Decode line-21 closed captions (CEA-608) from analog video",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if calibrationFlag != "" {
				cal, err := entities.LoadCalibration(calibrationFlag)
				if err != nil {
					return err
				}
				c.Calibration = cal
			}
			if err := c.Valid(); err != nil {
				return err
			}
			formats, err := entities.ParseFormats(formatsFlag)
			if err != nil {
				return err
			}
			req := &entities.DecodeRequest{
				Input:      args[0],
				OutputBase: outputFlag,
				Formats:    formats,
			}
			if err := req.Valid(); err != nil {
				return err
			}
			return run(cmd, c, req, statsFlag)
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output base name without extension (default: stdout, single format only)")
	cmd.Flags().StringVar(&formatsFlag, "formats", "srt", "Comma-separated output formats: srt, scc, html, text, xds, raw, debug")
	cmd.Flags().StringVar(&c.FFmpegPath, "ffmpeg", c.FFmpegPath, "Path to the ffmpeg binary")
	cmd.Flags().StringVar(&c.FFmpegPreScale, "ffmpeg-pre-scale", c.FFmpegPreScale, "Extra ffmpeg filter inserted before scaling")
	cmd.Flags().BoolVar(&c.Deinterlaced, "deinterlaced", c.Deinterlaced, "Input was deinterlaced; re-interlace so both fields land in the strip")
	cmd.Flags().IntVar(&c.StartLine, "start-line", c.StartLine, "First scanline of the burst search window")
	cmd.Flags().IntVar(&c.LineCount, "lines", c.LineCount, "Number of scanlines in the burst search window")
	cmd.Flags().Float64Var(&c.FrameRate, "fps", c.FrameRate, "Frame rate: 29.97 or 25")
	cmd.Flags().IntVar(&c.FixedLine, "fixed-line", c.FixedLine, "Pin the burst search to one strip row (negative scans)")
	cmd.Flags().StringVar(&calibrationFlag, "calibration", "", "TOML calibration profile overriding the sync tuning")
	cmd.Flags().BoolVar(&statsFlag, "stats", false, "Print the session summary table to stderr")

	return cmd
}

func run(cmd *cobra.Command, c *entities.Config, req *entities.DecodeRequest, showStats bool) error {
	var (
		controller *engine.DecodeEngineController
		stats      *entities.SessionStats
	)
	fxApp := fx.New(
		app.Dependencies(c),
		fx.Populate(&controller, &stats),
		fx.NopLogger,
	)
	if err := fxApp.Err(); err != nil {
		return err
	}

	eng, err := controller.EngineFor(req)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Run(ctx); err != nil {
		return err
	}

	if showStats {
		printStats(os.Stderr, stats)
	}
	return nil
}
