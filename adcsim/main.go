package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harveysanders/picosampler/adcsensor/sampler"
	"github.com/spf13/cobra"
)

var (
	flagDepth        int
	flagStrategy     string
	flagConsistency  string
	flagRate         float64
	flagDelay        time.Duration
	flagSignal       string
	flagVref         float64
	flagBits         uint
	flagLegacyWindow bool
	flagMetricsAddr  string
	flagLogFile      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "adcsim",
		Short: "Host simulator for the interrupt-driven ADC sampler",
		Long: `adcsim runs the sampler, display consumer and LCD handler from the
firmware against a simulated converter whose conversions complete on a clock
goroutine, and shows the virtual 16x2 LCD in the terminal.

With --signal ramp every consistent snapshot descends by one count per slot,
so partially shifted (torn) reads are counted. --consistency relaxed reads
the live buffer with no protection; expect torn reads at high rates.`,
		SilenceUsage: true,
		RunE:         run,
	}

	f := rootCmd.Flags()
	f.IntVar(&flagDepth, "depth", sampler.DefaultDepth, "Number of samples kept in the history")
	f.StringVar(&flagStrategy, "strategy", "shift", "History insertion: shift or ring")
	f.StringVar(&flagConsistency, "consistency", "relaxed", "Reader protection: relaxed, critical or swap")
	f.Float64Var(&flagRate, "rate", 1000, "Conversions per second")
	f.DurationVar(&flagDelay, "delay", 250*time.Millisecond, "Display consumer polling delay")
	f.StringVar(&flagSignal, "signal", signalRamp, "Simulated input: ramp, sine or const")
	f.Float64Var(&flagVref, "vref", 5.0, "Reference voltage in volts")
	f.UintVar(&flagBits, "bits", 10, "Converter resolution in bits")
	f.BoolVar(&flagLegacyWindow, "legacy-window", false, "Average entries 0..N-2 over N, as the AVR firmware did")
	f.StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve /metrics and /history on this address")
	f.StringVar(&flagLogFile, "log-file", "", "Write logs to this file (the TUI owns the terminal)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func optionsFromFlags() (options, error) {
	strategy, err := parseStrategy(flagStrategy)
	if err != nil {
		return options{}, err
	}
	consistency, err := parseConsistency(flagConsistency)
	if err != nil {
		return options{}, err
	}
	window := sampler.WindowFull
	if flagLegacyWindow {
		window = sampler.WindowLegacy
	}
	return options{
		depth:       flagDepth,
		strategy:    strategy,
		consistency: consistency,
		window:      window,
		rate:        flagRate,
		delay:       flagDelay,
		signal:      flagSignal,
		vref:        flagVref,
		bits:        flagBits,
		metricsAddr: flagMetricsAddr,
		logFile:     flagLogFile,
	}, nil
}

func newLogger(path string) (*slog.Logger, func() error, error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, f.Close, nil
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := optionsFromFlags()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	sim, err := newSimulation(opts, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := sim.start(ctx); err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           newRouter(sim),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http:serve", slog.Any("err", err))
			}
		}()
		defer srv.Close()
	}

	p := tea.NewProgram(newModel(sim), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
