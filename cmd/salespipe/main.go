// Command salespipe runs the sales data pipeline: it loads the configured
// sales, metadata, and region sources, merges them into one table, and
// writes the merged CSV, insights report, and dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"salespipe/internal/config"
	"salespipe/internal/metrics"
	"salespipe/internal/metrics/datadog"
	"salespipe/internal/pipeline"

	// register all sink backends with the export factory.
	// config specifies which to use but support for all of them is built in.
	_ "salespipe/internal/export/all"
)

func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		validate          bool
		inspect           bool
	)

	flag.StringVar(&cfgPath, "config", "configs/sample.json", "run config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (datadog, none)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&inspect, "inspect", false, "load and print inferred source schemas, then exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	issues := config.Validate(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %v", cfgPath)
	}
	if validate {
		fmt.Printf("configuration is valid: %v\n", cfgPath)
		return
	}

	log := newLogger(*verbose)
	defer log.Sync()

	// Decide metrics backend: flag then env then disabled.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "datadog":
		// The Datadog backend buffers metrics, submits them periodically,
		// and submits one final time on Close().
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName:    cfg.Job,
			Tags:       datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			log.Warn("metrics init failed, using nop", zap.Error(err))
		} else {
			log.Info("metrics enabled", zap.String("backend", backendName), zap.String("job", cfg.Job))
			metrics.SetBackend(b)
			defer func() {
				if err := b.Close(); err != nil {
					log.Warn("metrics close", zap.Error(err))
				}
			}()
		}

	case "", "none":
		if *verbose {
			log.Debug("metrics disabled", zap.String("backend", backendName))
		}

	default:
		log.Warn("unknown metrics backend, metrics disabled", zap.String("backend", backendName))
	}

	ctx := context.Background()
	start := time.Now()
	p := pipeline.New(cfg, log)

	if inspect {
		runInspect(ctx, p)
		return
	}

	res, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoData) {
			fatalf("no usable input data; check the configured source paths")
		}
		fatalf("run: %v", err)
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s: %s\n", w.Stage, w.Source, w.Msg)
	}
	if *verbose {
		log.Info("run complete",
			zap.String("primary", res.Primary),
			zap.Int("rows", res.Merged.NumRows()),
			zap.Int("warnings", len(res.Warnings)),
			zap.Duration("duration", time.Since(start).Truncate(time.Millisecond)))
	}
}

func runInspect(ctx context.Context, p *pipeline.Pipeline) {
	schemas, warnings, err := p.Inspect(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoData) {
			fatalf("no usable input data; check the configured source paths")
		}
		fatalf("inspect: %v", err)
	}

	const sampleRows = 3
	for _, s := range schemas {
		fmt.Printf("%s: %d rows, %d columns\n", s.Role, s.Table.NumRows(), s.Table.NumCols())
		for _, c := range s.Table.Columns() {
			fmt.Printf("  %-30s %s\n", c.Name, c.Kind)
		}
		for i := 0; i < s.Table.NumRows() && i < sampleRows; i++ {
			cells := make([]string, 0, s.Table.NumCols())
			for _, c := range s.Table.Columns() {
				v, _ := c.Text(i)
				cells = append(cells, v)
			}
			fmt.Printf("  row %d: %s\n", i, strings.Join(cells, ", "))
		}
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s: %s\n", w.Stage, w.Source, w.Msg)
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		fatalf("init logger: %v", err)
	}
	return log
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
