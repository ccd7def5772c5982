// Package pipeline orchestrates a full run: load the configured sources,
// infer schemas, merge into one table, aggregate insights, and write the
// output artifacts.
//
// Failure policy: everything degrades to a collected warning and the run
// continues with whatever data survived. Only total absence of usable input
// aborts the run, before aggregation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"salespipe/internal/config"
	"salespipe/internal/export"
	"salespipe/internal/infer"
	"salespipe/internal/ingest"
	"salespipe/internal/insight"
	"salespipe/internal/merge"
	"salespipe/internal/metrics"
	"salespipe/internal/report"
	"salespipe/internal/table"
)

// ErrNoData is returned when none of the configured sources yielded a
// table. It is the only fatal condition of a run.
var ErrNoData = errors.New("pipeline: no usable input data")

// Warning is one non-fatal problem collected during a run.
type Warning struct {
	Stage  string
	Source string
	Msg    string
}

// MergeStep records how one secondary table merged into the primary.
type MergeStep struct {
	Role   string
	Result merge.Result
}

// Result is everything a completed run produced.
type Result struct {
	Primary  string
	Merged   *table.Table
	Insights insight.Set
	Merges   []MergeStep
	Warnings []Warning

	DashboardWritten bool
}

// SourceSchema is one loaded source with its inferred column kinds, used by
// inspect mode.
type SourceSchema struct {
	Role  string
	Table *table.Table
}

// Pipeline runs one configured job.
type Pipeline struct {
	cfg config.Config
	log *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, log: log}
}

// source roles in fixed priority order. Primary election ties resolve in
// this order; merges apply in this order too, skipping the primary.
var roles = []string{"sales", "metadata", "region"}

// Run executes the full pipeline and writes the configured artifacts.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	tables := p.loadAll(res)
	if len(tables) == 0 {
		return nil, ErrNoData
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.inferAll(tables, res)

	res.Primary = electPrimary(tables)
	merged := tables[res.Primary]
	p.log.Info("primary elected",
		zap.String("role", res.Primary),
		zap.Int("rows", merged.NumRows()))

	merged = p.mergeAll(merged, tables, res)
	res.Merged = merged
	metrics.Records("merged", merged.NumRows())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res.Insights = insight.Aggregate(merged)
	metrics.Step("aggregate", "ok", time.Since(start))
	p.log.Info("stage ok", zap.String("stage", "aggregate"), zap.Duration("duration", time.Since(start)))

	p.writeOutputs(ctx, res)
	return res, nil
}

// Inspect loads and infers the configured sources without merging or
// writing anything.
func (p *Pipeline) Inspect(ctx context.Context) ([]SourceSchema, []Warning, error) {
	res := &Result{}
	tables := p.loadAll(res)
	if len(tables) == 0 {
		return nil, res.Warnings, ErrNoData
	}
	if err := ctx.Err(); err != nil {
		return nil, res.Warnings, err
	}
	p.inferAll(tables, res)

	var out []SourceSchema
	for _, role := range roles {
		if t, ok := tables[role]; ok {
			out = append(out, SourceSchema{Role: role, Table: t})
		}
	}
	return out, res.Warnings, nil
}

// loadAll reads every configured source. A missing or unparseable source
// becomes a warning; the role is simply absent from the returned map.
func (p *Pipeline) loadAll(res *Result) map[string]*table.Table {
	srcs := map[string]config.Source{
		"sales":    p.cfg.Sources.Sales,
		"metadata": p.cfg.Sources.Metadata,
		"region":   p.cfg.Sources.Region,
	}

	tables := make(map[string]*table.Table)
	for _, role := range roles {
		src := srcs[role]
		if src.Path == "" {
			continue
		}
		stage := "load_" + role

		start := time.Now()
		t, err := loadSource(src, role)
		if err != nil {
			metrics.Step(stage, "error", time.Since(start))
			p.log.Warn("source skipped",
				zap.String("stage", stage),
				zap.String("path", src.Path),
				zap.Error(err))
			res.Warnings = append(res.Warnings, Warning{
				Stage:  stage,
				Source: src.Path,
				Msg:    err.Error(),
			})
			continue
		}
		metrics.Step(stage, "ok", time.Since(start))
		metrics.Records("loaded", t.NumRows())
		p.log.Info("stage ok",
			zap.String("stage", stage),
			zap.Int("rows", t.NumRows()),
			zap.Int("columns", t.NumCols()),
			zap.Duration("duration", time.Since(start)))
		tables[role] = t
	}
	return tables
}

func loadSource(src config.Source, role string) (*table.Table, error) {
	switch src.Format {
	case config.FormatCSV:
		return ingest.CSV(src.Path, role)
	case config.FormatJSON:
		return ingest.JSON(src.Path, role)
	case config.FormatXLSX:
		return ingest.XLSX(src.Path, src.Sheet, role)
	case config.FormatHTML:
		return ingest.HTMLTable(src.Path, role)
	default:
		return nil, fmt.Errorf("unsupported format %q", src.Format)
	}
}

func (p *Pipeline) inferAll(tables map[string]*table.Table, res *Result) {
	for _, role := range roles {
		t, ok := tables[role]
		if !ok {
			continue
		}
		start := time.Now()
		for _, w := range infer.Schema(t) {
			res.Warnings = append(res.Warnings, Warning{
				Stage:  "infer_" + role,
				Source: w.Column,
				Msg:    w.Msg,
			})
		}
		metrics.Step("infer_"+role, "ok", time.Since(start))
	}
}

// electPrimary picks the table with the most rows. Ties resolve by role
// priority so runs are reproducible.
func electPrimary(tables map[string]*table.Table) string {
	primary := ""
	best := -1
	for _, role := range roles {
		t, ok := tables[role]
		if !ok {
			continue
		}
		if t.NumRows() > best {
			primary, best = role, t.NumRows()
		}
	}
	return primary
}

// mergeSuffixes maps a secondary role to the collision-rename suffix.
var mergeSuffixes = map[string]string{
	"sales":    "sales",
	"metadata": "meta",
	"region":   "region",
}

func (p *Pipeline) mergeAll(primary *table.Table, tables map[string]*table.Table, res *Result) *table.Table {
	merged := primary
	for _, role := range roles {
		if role == res.Primary {
			continue
		}
		secondary, ok := tables[role]
		if !ok {
			continue
		}

		start := time.Now()
		out, mr := merge.Tables(merged, secondary, mergeSuffixes[role], p.explicitKey(role))
		res.Merges = append(res.Merges, MergeStep{Role: role, Result: mr})

		status := "ok"
		if mr.Outcome != merge.Merged {
			status = "skipped"
			res.Warnings = append(res.Warnings, Warning{
				Stage:  "merge_" + role,
				Source: secondary.Name,
				Msg:    "merge skipped: " + mr.Outcome.String(),
			})
		}
		metrics.Step("merge_"+role, status, time.Since(start))
		p.log.Info("stage "+status,
			zap.String("stage", "merge_"+role),
			zap.String("outcome", mr.Outcome.String()),
			zap.String("key", mr.Key.Left),
			zap.Int("rows", mr.RowsOut),
			zap.Duration("duration", time.Since(start)))
		merged = out
	}
	return merged
}

func (p *Pipeline) explicitKey(role string) *merge.Key {
	var k string
	switch role {
	case "metadata":
		k = p.cfg.Merge.MetadataKey
	case "region":
		k = p.cfg.Merge.RegionKey
	}
	if k == "" {
		return nil
	}
	return &merge.Key{Left: k, Right: k}
}

// writeOutputs writes the merged CSV, the text report, the dashboard, and
// the optional database export. Each artifact failure is an independent
// warning; a broken output never voids the others.
func (p *Pipeline) writeOutputs(ctx context.Context, res *Result) {
	out := p.cfg.Output

	if err := export.WriteCSV(out.MergedCSV, res.Merged); err != nil {
		res.Warnings = append(res.Warnings, Warning{Stage: "write_csv", Source: out.MergedCSV, Msg: err.Error()})
	} else {
		p.log.Info("artifact written", zap.String("path", out.MergedCSV))
	}

	if err := report.WriteText(out.Report, res.Insights); err != nil {
		res.Warnings = append(res.Warnings, Warning{Stage: "write_report", Source: out.Report, Msg: err.Error()})
	} else {
		p.log.Info("artifact written", zap.String("path", out.Report))
	}

	ok, err := report.WriteDashboard(out.Dashboard, res.Merged, res.Insights)
	switch {
	case err != nil:
		res.Warnings = append(res.Warnings, Warning{Stage: "write_dashboard", Source: out.Dashboard, Msg: err.Error()})
	case ok:
		res.DashboardWritten = true
		p.log.Info("artifact written", zap.String("path", out.Dashboard))
	default:
		p.log.Info("dashboard skipped, no plottable columns")
	}

	if kind := out.Sink.Kind; kind != "" && kind != "none" {
		p.exportSink(ctx, res)
	}
}

func (p *Pipeline) exportSink(ctx context.Context, res *Result) {
	out := p.cfg.Output
	start := time.Now()

	fail := func(err error) {
		metrics.Step("export_sink", "error", time.Since(start))
		res.Warnings = append(res.Warnings, Warning{Stage: "export_sink", Source: out.Sink.Kind, Msg: err.Error()})
		p.log.Warn("sink export failed", zap.String("kind", out.Sink.Kind), zap.Error(err))
	}

	cfg := export.Config{Kind: out.Sink.Kind, DSN: out.Sink.DSN, Table: out.Sink.Table}
	sink, err := export.New(ctx, cfg)
	if err != nil {
		fail(err)
		return
	}
	defer sink.Close()

	if err := sink.Write(ctx, cfg, res.Merged); err != nil {
		fail(err)
		return
	}
	metrics.Step("export_sink", "ok", time.Since(start))
	p.log.Info("stage ok",
		zap.String("stage", "export_sink"),
		zap.String("kind", out.Sink.Kind),
		zap.String("table", cfg.Table),
		zap.Duration("duration", time.Since(start)))
}
