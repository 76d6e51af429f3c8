package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"PayEngine/internal/engine"
	"PayEngine/internal/ingestion"
	"PayEngine/internal/ledger"
	"PayEngine/internal/observability"
	"PayEngine/internal/output"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Config holds all application configuration, loaded from environment
// variables. The input itself comes from the command line: a CSV path in
// batch mode, or --nats for stream mode.
type Config struct {
	NATSURL        string
	RecordChanSize int
	MetricsAddr    string
}

func DefaultConfig() Config {
	return Config{
		NATSURL:        envOrDefault("PAY_NATS_URL", "nats://localhost:4222"),
		RecordChanSize: envIntOrDefault("PAY_RECORD_CHAN_SIZE", 1024),
		MetricsAddr:    envOrDefault("PAY_METRICS_ADDR", ":9091"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	streamMode := flag.Bool("nats", false, "consume records from NATS JetStream instead of a CSV file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [--nats] <transactions.csv>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := observability.NewLogger("main")
	cfg := DefaultConfig()

	metrics := observability.NewMetrics()
	eng := engine.New(ledger.New(), metrics, observability.NewLogger("engine"))

	var err error
	if *streamMode {
		err = runStream(cfg, eng, metrics, logger)
	} else {
		if flag.NArg() != 1 {
			flag.Usage()
			os.Exit(2)
		}
		err = runBatch(flag.Arg(0), eng, metrics)
	}
	if err != nil {
		// The snapshot below still covers everything accepted before the
		// failure; exit non-zero only after it is written.
		logger.Error().Err(err).Msg("run failed")
	}

	// The snapshot goes to stdout; all diagnostics are on stderr.
	if werr := output.WriteSnapshot(os.Stdout, eng.Snapshot()); werr != nil {
		logger.Fatal().Err(werr).Msg("write snapshot")
	}

	report := eng.Report()
	logger.Info().
		Int64("processed", report.Processed).
		Int64("accepted", report.Accepted).
		Int64("rejected", report.Rejected).
		Msg("snapshot written")

	if err != nil {
		os.Exit(1)
	}
}

// runBatch folds a single CSV file through the engine.
func runBatch(path string, eng *engine.Engine, metrics *observability.Metrics) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	src := ingestion.NewCSVSource(f, metrics, observability.NewLogger("csv"))
	if _, err := eng.Run(src); err != nil {
		return err
	}
	return nil
}

// runStream consumes records from NATS JetStream until SIGINT/SIGTERM, then
// drains what is already queued so main can write the final snapshot.
func runStream(cfg Config, eng *engine.Engine, metrics *observability.Metrics, logger zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return fmt.Errorf("nats connect %s: %w", cfg.NATSURL, err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("jetstream: %w", err)
	}

	recordChan := make(chan ingestion.RawRecord, cfg.RecordChanSize)
	sub := ingestion.NewNATSSubscriber(js, recordChan, metrics)
	if err := sub.Subscribe(ctx, ingestion.DefaultSubject()); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	logger.Info().Str("url", cfg.NATSURL).Msg("consuming transaction records")

	// Metrics and health endpoints, stream mode only.
	health := observability.NewHealthChecker()
	health.SetReady(true)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.LivenessHandler)
	mux.HandleFunc("/readyz", health.ReadinessHandler)
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("shutting down, draining queued records")
		health.SetReady(false)
		// Drain waits for in-flight callbacks and closes recordChan itself;
		// anything already queued is still folded into the snapshot.
		sub.Drain()
		cancel()
	}()

	src := ingestion.NewStreamSource(recordChan, metrics, observability.NewLogger("stream"))
	_, runErr := eng.Run(src)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	return runErr
}
