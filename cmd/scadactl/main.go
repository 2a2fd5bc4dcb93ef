package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"codeberg.org/mutker/scadactl/internal/app"
	"codeberg.org/mutker/scadactl/internal/collector"
	"codeberg.org/mutker/scadactl/internal/config"
	"codeberg.org/mutker/scadactl/internal/logger"
	"codeberg.org/mutker/scadactl/internal/pid"
	"codeberg.org/mutker/scadactl/internal/server"
	"codeberg.org/mutker/scadactl/internal/shell"
)

type modes struct {
	testConnection bool
	collectOnly    bool
	duration       int
	serve          bool
}

// parseModes reads the mode-selection flags. Configuration flags are
// handled separately by config.Load; unknown flags pass through both
// parsers.
func parseModes() (modes, error) {
	var m modes

	fs := pflag.NewFlagSet("scadactl-modes", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.BoolVar(&m.testConnection, "test-connection", false, "Probe the endpoint and every catalog point, then exit")
	fs.BoolVar(&m.collectOnly, "collect-only", false, "Collect for a fixed duration and dump the history to CSV")
	fs.IntVar(&m.duration, "duration", 60, "Collection duration in seconds for --collect-only")
	fs.BoolVar(&m.serve, "serve", false, "Run the HTTP API server")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return m, err
	}

	return m, nil
}

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")
}

func main() {
	m, err := parseModes()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse flags")
	}

	a, err := app.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer a.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	switch {
	case m.testConnection:
		os.Exit(runTestConnection(a))
	case m.collectOnly:
		runCollectOnly(ctx, a, time.Duration(m.duration)*time.Second)
	case m.serve:
		runServe(ctx, a)
	default:
		runInteractive(ctx, a)
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// runTestConnection probes the endpoint and every configured point,
// printing a diagnostic table. Returns the process exit code.
func runTestConnection(a *app.App) int {
	fmt.Println("Testing connection to SCADA-LTS...")

	diag := a.Client.TestConnection(a.Catalog.ListNames())
	if !diag.Connected {
		fmt.Printf("Connection failed: %s\n", strings.Join(diag.Errors, "; "))
		return 1
	}

	fmt.Printf("Connected to %s\n\nPoint status:\n", cfg.Scada.BaseURL)

	names := make([]string, 0, len(diag.Points))
	for name := range diag.Points {
		names = append(names, name)
	}
	sort.Strings(names)

	failures := 0
	for _, name := range names {
		p := diag.Points[name]
		if p.OK {
			fmt.Printf("  ok   %s (%s): %.3f\n", name, p.XID, p.Value)
		} else {
			failures++
			fmt.Printf("  FAIL %s (%s): %s\n", name, p.XID, p.Error)
		}
	}

	if failures > 0 {
		fmt.Printf("\n%d of %d points unreadable\n", failures, len(names))
		return 1
	}

	return 0
}

// runCollectOnly samples for the given duration, printing each snapshot,
// then dumps the retained history to a timestamped CSV file.
func runCollectOnly(ctx context.Context, a *app.App, duration time.Duration) {
	if err := a.Client.Connect(); err != nil {
		logger.Fatal().Err(err).Msg("could not connect to SCADA endpoint")
	}

	logger.Info().Dur("duration", duration).Msg("Collect-only mode")

	a.Collector.OnData(func(s *collector.Snapshot) {
		fmt.Printf("[%s] %s\n", s.Timestamp.Format("15:04:05"), formatValues(s))
	})
	a.Collector.Start()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Interrupted")
	case <-time.After(duration):
	}

	a.Collector.Stop()

	if a.Collector.BufferSize() == 0 {
		logger.Warn().Msg("No data collected, nothing to export")
		return
	}

	filename := fmt.Sprintf("scadactl-%s.csv", time.Now().Format("20060102-150405"))

	f, err := os.Create(filename)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create export file")
		return
	}
	defer f.Close()

	if err := a.Collector.Export(f, collector.FormatCSV); err != nil {
		logger.Error().Err(err).Msg("failed to export history")
		return
	}

	logger.Info().Str("file", filename).Msg("History saved")
}

func formatValues(s *collector.Snapshot) string {
	names := make([]string, 0, len(s.Values))
	for name := range s.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		value := s.Values[name]
		if collector.IsMissing(value) {
			parts = append(parts, name+"=ERROR")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%.2f", name, value))
	}

	return strings.Join(parts, " ")
}

// runServe starts collection and serves the HTTP facade until a signal
// arrives.
func runServe(ctx context.Context, a *app.App) {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("another instance is running")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Warn().Err(err).Msg("failed to remove PID file")
		}
	}()

	if err := a.Client.Connect(); err != nil {
		logger.Warn().Err(err).Msg("could not connect to SCADA endpoint, serving anyway")
	}

	a.Collector.Start()

	if err := server.New(a, cfg.Server.Listen).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server failed")
	}
}

// runInteractive connects, starts collection and hands control to the
// operator console.
func runInteractive(ctx context.Context, a *app.App) {
	if err := a.Client.Connect(); err != nil {
		fmt.Printf("Could not connect to SCADA endpoint: %v\n", err)
		fmt.Println("Continuing offline (no live data).")
	} else {
		fmt.Println("Connected.")
		a.Collector.Start()
		fmt.Printf("Collector started (%.1f Hz)\n", cfg.Collector.SampleRateHz)
	}

	if cfg.LLM.APIKey == "" {
		fmt.Println("No API key configured. Using MOCK agent (simulated responses).")
		fmt.Println("Set ANTHROPIC_API_KEY for real analysis.")
	}

	if err := shell.New(a).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("console error")
	}
}
