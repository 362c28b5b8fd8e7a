// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ik5/playsched"
	"github.com/ik5/playsched/engine"
	"github.com/ik5/playsched/internal/config"
	"github.com/ik5/playsched/internal/logging"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "playsched",
	Short:         "Render and inspect scheduled playback of a timeline region",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var renderFlags struct {
	session    string
	out        string
	t0, t1     float64
	loop       bool
	max        float64
	bits       int
	metricsOut string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Play a session offline into a WAV file",
	Long: "Mix the session's tracks over its region, honouring looping, reverse play " +
		"and the speed curve, and write the result as a WAV file.",
	RunE: runRender,
}

var inspectFlags struct {
	session string
	step    float64
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print how a session's speed curve maps track time to real time",
	RunE:  runInspect,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderFlags.session, "session", "s", "", "session file (YAML)")
	f.StringVarP(&renderFlags.out, "out", "o", "", "output WAV file")
	f.Float64Var(&renderFlags.t0, "t0", 0, "region start in seconds, overriding the session")
	f.Float64Var(&renderFlags.t1, "t1", 0, "region end in seconds, overriding the session")
	f.BoolVar(&renderFlags.loop, "loop", false, "loop the region, overriding the session")
	f.Float64Var(&renderFlags.max, "max", 0, "stop after this many seconds, overriding the session")
	f.IntVar(&renderFlags.bits, "bits", playsched.DefaultBitDepth, "output bit depth (16, 24 or 32)")
	f.StringVar(&renderFlags.metricsOut, "metrics-out", "", "write Prometheus metrics to this file when done")
	_ = renderCmd.MarkFlagRequired("session")
	_ = renderCmd.MarkFlagRequired("out")

	f = inspectCmd.Flags()
	f.StringVarP(&inspectFlags.session, "session", "s", "", "session file (YAML)")
	f.Float64Var(&inspectFlags.step, "step", 0.5, "track time between table rows, in seconds")
	_ = inspectCmd.MarkFlagRequired("session")

	rootCmd.AddCommand(renderCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment, cfg.LogLevel)
	return nil
}

func runRender(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	sess, err := config.LoadSession(renderFlags.session)
	if err != nil {
		return err
	}
	applyOverrides(cmd, sess)
	if err := sess.Validate(); err != nil {
		return err
	}

	env, err := sess.Envelope()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)

	rc := playsched.Config{
		Rate:         cfg.Rate,
		Channels:     cfg.Channels,
		BitDepth:     renderFlags.bits,
		BufferFrames: cfg.BufferFrames(),
		BlockFrames:  cfg.BlockFrames,
		T0:           sess.T0,
		T1:           sess.T1,
		Loop:         sess.Loop,
		MaxSeconds:   sess.MaxSeconds,
		PadFrames:    sess.PadFrames,
		Envelope:     env,
		Metrics:      metrics,
		Logger:       logger,
	}
	if sess.CutPreview != nil {
		rc.CutPreviewStart = sess.CutPreview.Start
		rc.CutPreviewLength = sess.CutPreview.Length
	}
	for _, t := range sess.Tracks {
		rc.Tracks = append(rc.Tracks, playsched.Track{Name: t.Name, Path: t.Path, Gain: t.Level()})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := render(ctx, renderFlags.out, rc)
	if err != nil {
		return err
	}

	if renderFlags.metricsOut != "" {
		if err := prometheus.WriteToTextfile(renderFlags.metricsOut, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames (%.3fs)\n", renderFlags.out, res.Frames, res.Seconds)
	return nil
}

func render(ctx context.Context, path string, rc playsched.Config) (playsched.Result, error) {
	f, err := os.Create(path)
	if err != nil {
		return playsched.Result{}, fmt.Errorf("create output: %w", err)
	}

	res, err := playsched.RenderWAV(ctx, f, rc)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	if err != nil {
		logger.Error().Err(err).Str("out", path).Msg("render failed")
		return res, err
	}
	return res, nil
}

// applyOverrides copies the flags the user actually set onto the session.
func applyOverrides(cmd *cobra.Command, sess *config.Session) {
	f := cmd.Flags()
	if f.Changed("t0") {
		sess.T0 = renderFlags.t0
	}
	if f.Changed("t1") {
		sess.T1 = renderFlags.t1
	}
	if f.Changed("loop") {
		sess.Loop = renderFlags.loop
	}
	if f.Changed("max") {
		sess.MaxSeconds = renderFlags.max
	}
}

func runInspect(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	sess, err := config.LoadSession(inspectFlags.session)
	if err != nil {
		return err
	}
	env, err := sess.Envelope()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "region      %.3fs -> %.3fs\n", sess.T0, sess.T1)
	fmt.Fprintf(out, "real length %.3fs\n", playsched.RealLength(env, sess.T0, sess.T1))
	fmt.Fprintf(out, "\n%10s %10s\n", "track", "real")
	for _, p := range playsched.Timeline(env, sess.T0, sess.T1, inspectFlags.step) {
		fmt.Fprintf(out, "%10.3f %10.3f\n", p.Track, p.Real)
	}
	return nil
}
