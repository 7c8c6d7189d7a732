package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ChronoBoot/loan-score/internal/config"
	"github.com/ChronoBoot/loan-score/internal/datasource"
	"github.com/ChronoBoot/loan-score/internal/datasource/httpds"
	"github.com/ChronoBoot/loan-score/internal/features"
	"github.com/ChronoBoot/loan-score/internal/frame"
	"github.com/ChronoBoot/loan-score/internal/metrics"
	"github.com/ChronoBoot/loan-score/internal/metrics/datadog"
	"github.com/ChronoBoot/loan-score/internal/metrics/prompush"
	"github.com/ChronoBoot/loan-score/internal/schema"
	"github.com/ChronoBoot/loan-score/internal/server"
	"github.com/ChronoBoot/loan-score/internal/storage"

	// register all storage backends with the factory.
	// config selects which one to use but support for all is built in.
	_ "github.com/ChronoBoot/loan-score/internal/storage/all"
)

// main is the entry point for the batch feature builder. It loads the
// service config, optionally initializes a metrics backend, assembles the
// feature table and writes the CSV and schema artifacts.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}

	var (
		metricsBackendFlg string
		pushGatewayURLFlg string
	)
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the source CSV files")
	flag.StringVar(&cfg.SchemaDir, "schema-dir", cfg.SchemaDir, "directory for the JSON schema descriptor")
	flag.StringVar(&cfg.SourceBaseURL, "source-base-url", cfg.SourceBaseURL, "base URL to download missing source files from")
	flag.IntVar(&cfg.SamplingFrequency, "sampling", cfg.SamplingFrequency, "keep every Nth applicant row (1 keeps all)")
	flag.StringVar(&cfg.StorageKind, "storage", cfg.StorageKind, "feature store backend (sqlite, postgres, mssql; empty disables)")
	flag.StringVar(&cfg.StorageDSN, "storage-dsn", cfg.StorageDSN, "feature store DSN")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", cfg.MetricsBackend, "metrics backend to use (datadog, pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", cfg.PushgatewayURL, "Pushgateway base URL")
	test := flag.Bool("test-set", false, "assemble the test applications instead of the training set")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	shutdownMetrics := setupMetrics(metricsBackendFlg, pushGatewayURLFlg, cfg.MetricsTags, *verbose)
	defer shutdownMetrics()

	ctx := context.Background()
	start := time.Now()

	loader := &datasource.Loader{
		BaseURL: cfg.SourceBaseURL,
		Client:  httpds.NewClient(httpds.Config{}),
		Logger:  log.Default(),
	}
	if err := loader.Ensure(ctx, cfg.DataDir, features.SourceFiles); err != nil {
		log.Fatalf("%v", err)
	}

	asm := features.NewAssembler(cfg.DataDir)
	asm.Logger = log.Default()

	data, err := asm.WriteFeatures(ctx, cfg.SamplingFrequency, !*test, server.FeatureFile)
	if err != nil {
		log.Fatalf("%v", err)
	}

	profile := schema.Profile(data)
	if err := profile.WriteFile(cfg.SchemaDir, server.SchemaFile); err != nil {
		log.Fatalf("%v", err)
	}

	if cfg.StorageKind != "" {
		if err := persist(ctx, cfg, data, profile); err != nil {
			log.Fatalf("%v", err)
		}
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

func persist(ctx context.Context, cfg config.Service, data *frame.Table, profile schema.Schema) error {
	repo, err := storage.New(ctx, storage.Config{Kind: cfg.StorageKind, DSN: cfg.StorageDSN})
	if err != nil {
		return err
	}
	defer repo.Close()

	n, err := repo.ReplaceFeatures(ctx, server.FeatureTable, storage.FeatureColumns(data), storage.FeatureRows(data))
	if err != nil {
		return err
	}
	log.Printf("stage=persist table=%s rows=%d", server.FeatureTable, n)

	doc, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return repo.SaveSchema(ctx, server.SchemaFile, doc)
}

// setupMetrics wires the selected metrics backend and returns the shutdown
// hook that submits whatever is still buffered.
func setupMetrics(backendName, gatewayURL, tags string, verbose bool) func() {
	switch backendName {
	case "pushgateway":
		if gatewayURL == "" {
			gatewayURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend("loanscore_features", gatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: url=%v backend=%v", gatewayURL, backendName)
		metrics.SetBackend(b)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Printf("metrics: flush error: %v", err)
			}
		}

	case "datadog":
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName:    "loanscore_features",
			Tags:       datadog.ParseTagsCSV(tags),
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: backend=%v", backendName)
		metrics.SetBackend(b)
		// Close stops the periodic flush loop and submits one final time.
		return func() {
			if err := b.Close(); err != nil {
				log.Printf("metrics: datadog close/flush error: %v", err)
			}
		}

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}
		return func() {}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
		return func() {}
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
