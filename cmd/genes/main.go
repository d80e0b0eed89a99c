// Command genes retrieves the NCBI gene files and derives the gene catalog,
// identifier updater, symbol lookup, and cross-reference artifacts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cognoma/genes/internal/adapters/export"
	"github.com/cognoma/genes/internal/blob"
	"github.com/cognoma/genes/internal/genes"
	"github.com/cognoma/genes/internal/infra/logging"
	"github.com/cognoma/genes/internal/ncbi"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("genes", flag.ContinueOnError)
	var (
		download      = fs.Bool("download", false, "fetch the source files from NCBI before processing")
		dir           = fs.String("dir", "download", "directory holding the source files")
		baseURL       = fs.String("base-url", ncbi.DefaultBaseURL, "NCBI base URL")
		geneInfoPath  = fs.String("gene-info", "", "override path to the gene info file")
		historyPath   = fs.String("gene-history", "", "override path to the gene history file")
		prefix        = fs.String("prefix", "", "key prefix for stored artifacts")
		skipStore     = fs.Bool("skip-store", false, "skip persisting the snapshot to the gene store")
		metricsListen = fs.String("metrics-listen", "", "address to serve Prometheus metrics on (empty disables)")
		logMode       = fs.String("log-mode", "development", "log mode: development or production")
		timeout       = fs.Duration("timeout", 30*time.Minute, "overall run timeout")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger, err := logging.New(*logMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	src := genes.Sources{
		GeneInfoPath:    *geneInfoPath,
		GeneHistoryPath: *historyPath,
	}
	if src.GeneInfoPath == "" {
		src.GeneInfoPath = filepath.Join(*dir, path.Base(ncbi.GeneInfoPath))
	}
	if src.GeneHistoryPath == "" {
		src.GeneHistoryPath = filepath.Join(*dir, path.Base(ncbi.GeneHistoryPath))
	}

	if *download {
		client := ncbi.NewClient(ncbi.WithBaseURL(*baseURL))
		versions, err := client.Download(ctx, ncbi.DefaultPaths(), *dir)
		if err != nil {
			logger.Error("download failed", "error", err)
			return 1
		}
		src.Versions = &versions
		logger.Info("sources downloaded", "dir", *dir, "files", len(versions.Files))
	}

	store, err := blob.Open(ctx)
	if err != nil {
		logger.Error("open blob store", "error", err)
		return 1
	}
	writer := export.New(store, *prefix)

	opts := []genes.Option{genes.WithLogger(logger)}

	var metrics genes.MetricsRecorder
	if *metricsListen != "" {
		registry := prometheus.NewRegistry()
		metrics = genes.NewPrometheusMetricsRecorder(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsListen, mux); err != nil {
				logger.Warn("metrics listener stopped", "error", err)
			}
		}()
	} else {
		metrics = genes.NewExpvarMetricsRecorder("")
	}
	opts = append(opts, genes.WithMetrics(metrics))

	if !*skipStore {
		geneStore, err := genes.OpenGeneStore()
		if err != nil {
			logger.Error("open gene store", "error", err)
			return 1
		}
		defer func() { _ = geneStore.Close() }()
		opts = append(opts, genes.WithStore(geneStore))
	}

	svc := genes.NewService(writer, opts...)
	report, err := svc.Run(ctx, src)
	if err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("encode report", "error", err)
		return 1
	}
	return 0
}
