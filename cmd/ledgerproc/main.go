package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	csvAdapter "github.com/iho/ledgerproc/internal/adapter/csv"
	"github.com/iho/ledgerproc/internal/adapter/idgen"
	"github.com/iho/ledgerproc/internal/adapter/repository/memory"
	"github.com/iho/ledgerproc/internal/infrastructure/config"
	"github.com/iho/ledgerproc/internal/infrastructure/logger"
	"github.com/iho/ledgerproc/internal/infrastructure/metrics"
	"github.com/iho/ledgerproc/internal/usecase"
)

type options struct {
	logLevel    string
	metricsFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "ledgerproc <input.csv>",
		Short: "Replay a CSV ledger and print client balances",
		Long: `Reads deposits, withdrawals, disputes, resolves and chargebacks from a CSV
file in order and writes the final state of every client account to stdout.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], opts, stdout, stderr)
		},
	}

	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level, overrides LOG_LEVEL")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics here after the run, overrides LEDGER_METRICS_FILE")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	return cmd
}

func run(ctx context.Context, path string, opts options, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.metricsFile != "" {
		cfg.MetricsFile = opts.metricsFile
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: stderr})

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	registry := prometheus.NewRegistry()
	store := memory.NewStore()

	pipeline := usecase.NewPipeline(usecase.PipelineConfig{
		Engine:        usecase.NewEngine(),
		Logger:        log.With().Str("input", path).Logger(),
		Metrics:       metrics.New(registry),
		IDGen:         idgen.NewULIDGenerator(),
		QueueCapacity: cfg.QueueCapacity,
	})

	if _, err := pipeline.Run(ctx, csvAdapter.NewDecoder(bufio.NewReader(file)), store); err != nil {
		return err
	}

	if err := csvAdapter.NewEncoder(stdout, cfg.SortOutput).Encode(store.Snapshots()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile, registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		log.Debug().Str("path", cfg.MetricsFile).Msg("metrics written")
	}

	return nil
}
