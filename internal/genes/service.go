package genes

import (
	"context"
	"fmt"
	"time"

	"github.com/cognoma/genes/internal/ncbi"
	"github.com/cognoma/genes/internal/table"
	"github.com/cognoma/genes/pkg/domain"
)

// Output artifact names, stable across runs.
const (
	GenesArtifact     = "genes.tsv"
	UpdaterArtifact   = "updater.tsv"
	SymbolMapArtifact = "chromosome-symbol-mapper.tsv"
	XrefsArtifact     = "genes-xrefs.tsv"
	VersionsArtifact  = "versions.json"
)

// Logger is the minimal structured logging contract the service depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Artifact describes one exported output file.
type Artifact struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Rows        int    `json:"rows"`
}

// ArtifactWriter persists rendered outputs. Implementations must render the
// full payload before storing anything so a failed stage leaves no partial
// artifact behind.
type ArtifactWriter interface {
	WriteTable(ctx context.Context, name string, tbl *table.Table) (Artifact, error)
	WriteJSON(ctx context.Context, name string, v any) (Artifact, error)
}

// Sources names the locally present input files for one run. Versions is
// optional retrieval metadata recorded alongside the outputs.
type Sources struct {
	GeneInfoPath    string
	GeneHistoryPath string
	Versions        *domain.Versions
}

// Report summarizes a completed run.
type Report struct {
	Genes     int        `json:"genes"`
	History   int        `json:"history"`
	SymbolMap int        `json:"symbol_map"`
	Xrefs     int        `json:"xrefs"`
	Artifacts []Artifact `json:"artifacts"`
	Started   time.Time  `json:"started"`
	Completed time.Time  `json:"completed"`
}

// Service runs the full transform batch: read sources, build the four
// derived tables, export artifacts, and optionally persist a queryable
// snapshot. Stages run strictly in sequence; each stage completes before
// its output is consumed.
type Service struct {
	writer  ArtifactWriter
	store   domain.GeneStore
	metrics MetricsRecorder
	logger  Logger
	clock   Clock
}

// Option configures a Service.
type Option func(*Service)

// WithStore attaches a persistent gene store fed after export.
func WithStore(store domain.GeneStore) Option {
	return func(s *Service) { s.store = store }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(rec MetricsRecorder) Option {
	return func(s *Service) { s.metrics = rec }
}

// WithLogger overrides the no-op default logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the system clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs a pipeline service writing artifacts through writer.
func NewService(writer ArtifactWriter, opts ...Option) *Service {
	s := &Service{
		writer: writer,
		logger: noopLogger{},
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the batch once. Any stage failure aborts the run; no output
// for the failed stage is written.
func (s *Service) Run(ctx context.Context, src Sources) (Report, error) {
	report := Report{Started: s.clock.Now().UTC()}

	var geneInfo, geneHistory *table.Table
	err := s.stage(ctx, "load_sources", func() error {
		var err error
		if geneInfo, err = ncbi.OpenTable(src.GeneInfoPath); err != nil {
			return err
		}
		geneHistory, err = ncbi.OpenTable(src.GeneHistoryPath)
		return err
	})
	if err != nil {
		return report, err
	}
	s.logger.Info("sources loaded",
		"gene_info_rows", geneInfo.Len(), "gene_history_rows", geneHistory.Len())

	var catalog, history, symbolMap, xrefs *table.Table
	build := []struct {
		stage string
		fn    func() (err error)
	}{
		{"build_catalog", func() (err error) { catalog, err = BuildGeneCatalog(geneInfo); return }},
		{"build_history", func() (err error) { history, err = BuildHistoryMap(geneHistory); return }},
		{"build_symbol_map", func() (err error) { symbolMap, err = BuildSymbolMap(catalog); return }},
		{"build_xrefs", func() (err error) { xrefs, err = BuildGeneXrefs(geneInfo); return }},
	}
	for _, step := range build {
		if err := s.stage(ctx, step.stage, step.fn); err != nil {
			return report, err
		}
	}
	report.Genes = catalog.Len()
	report.History = history.Len()
	report.SymbolMap = symbolMap.Len()
	report.Xrefs = xrefs.Len()
	s.addRows(ctx, GenesArtifact, catalog.Len())
	s.addRows(ctx, UpdaterArtifact, history.Len())
	s.addRows(ctx, SymbolMapArtifact, symbolMap.Len())
	s.addRows(ctx, XrefsArtifact, xrefs.Len())

	err = s.stage(ctx, "export", func() error {
		outputs := []struct {
			name string
			tbl  *table.Table
		}{
			{GenesArtifact, catalog},
			{UpdaterArtifact, history},
			{SymbolMapArtifact, symbolMap},
			{XrefsArtifact, xrefs},
		}
		for _, out := range outputs {
			artifact, err := s.writer.WriteTable(ctx, out.name, out.tbl)
			if err != nil {
				return err
			}
			report.Artifacts = append(report.Artifacts, artifact)
		}
		if src.Versions != nil {
			artifact, err := s.writer.WriteJSON(ctx, VersionsArtifact, src.Versions)
			if err != nil {
				return err
			}
			report.Artifacts = append(report.Artifacts, artifact)
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	if s.store != nil {
		err = s.stage(ctx, "persist", func() error {
			snapshot, err := buildSnapshot(catalog, history, symbolMap, xrefs)
			if err != nil {
				return err
			}
			return s.store.Replace(ctx, snapshot)
		})
		if err != nil {
			return report, err
		}
	}

	report.Completed = s.clock.Now().UTC()
	s.logger.Info("run complete",
		"genes", report.Genes, "history", report.History,
		"symbol_map", report.SymbolMap, "xrefs", report.Xrefs)
	return report, nil
}

func buildSnapshot(catalog, history, symbolMap, xrefs *table.Table) (domain.Snapshot, error) {
	genes, err := CatalogRecords(catalog)
	if err != nil {
		return domain.Snapshot{}, err
	}
	hist, err := HistoryRecords(history)
	if err != nil {
		return domain.Snapshot{}, err
	}
	entries, err := SymbolEntries(symbolMap)
	if err != nil {
		return domain.Snapshot{}, err
	}
	xr, err := XrefRecords(xrefs)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{Genes: genes, History: hist, SymbolMap: entries, Xrefs: xr}, nil
}

func (s *Service) stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if s.metrics != nil {
		s.metrics.Observe(ctx, name, err == nil, time.Since(start))
	}
	if err != nil {
		s.logger.Error("stage failed", "stage", name, "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	s.logger.Debug("stage complete", "stage", name, "duration", time.Since(start))
	return nil
}

func (s *Service) addRows(ctx context.Context, table string, rows int) {
	if s.metrics != nil {
		s.metrics.AddRows(ctx, table, rows)
	}
}
