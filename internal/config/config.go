// Package config defines the run configuration for the report pipeline.
//
// Configuration is an explicit value passed into the pipeline entry point.
// There are no process-wide mutable settings: source paths, merge key
// overrides, output artifact paths, and the optional database sink all
// live here.
package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Format identifiers accepted for a source.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
	FormatHTML = "html"
)

// Source describes one input file.
type Source struct {
	// Path to the input file. An empty path means the source is not
	// configured and is skipped without a warning.
	Path string `json:"path"`
	// Format is one of csv, json, xlsx, html. Empty selects the role's
	// conventional format (sales=csv, metadata=json, region=xlsx).
	Format string `json:"format"`
	// Sheet selects a worksheet for xlsx sources. Empty means first sheet.
	Sheet string `json:"sheet,omitempty"`
}

// Sources holds the three pipeline inputs by role.
type Sources struct {
	Sales    Source `json:"sales"`
	Metadata Source `json:"metadata"`
	Region   Source `json:"region"`
}

// Merge holds optional explicit join keys. Empty keys enable
// auto-detection from shared column names.
type Merge struct {
	MetadataKey string `json:"metadata_key,omitempty"`
	RegionKey   string `json:"region_key,omitempty"`
}

// Sink configures the optional database export of the merged table.
type Sink struct {
	// Kind is one of none, sqlite, postgres, mssql.
	Kind string `json:"kind" env:"SALESPIPE_SINK_KIND" env-default:"none"`
	// DSN is backend-specific and may reference environment variables.
	DSN string `json:"dsn" env:"SALESPIPE_SINK_DSN"`
	// Table is the target table name. Defaults to the job name.
	Table string `json:"table,omitempty"`
}

// Output names the artifacts written each run. Artifacts are overwritten;
// nothing persists across runs beyond them.
type Output struct {
	MergedCSV string `json:"merged_csv" env-default:"merged_data.csv"`
	Report    string `json:"report" env-default:"insights_report.txt"`
	Dashboard string `json:"dashboard" env-default:"insights_dashboard.png"`
	Sink      Sink   `json:"sink"`
}

// Config is the full run configuration.
type Config struct {
	// Job is the logical run name used in logs, metrics tags, and the
	// default sink table name.
	Job     string  `json:"job" env:"SALESPIPE_JOB" env-default:"salespipe"`
	Sources Sources `json:"sources"`
	Merge   Merge   `json:"merge"`
	Output  Output  `json:"output"`
}

// Load reads a JSON config file, applying env overrides and defaults.
func Load(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Sources.Sales.Format == "" {
		cfg.Sources.Sales.Format = FormatCSV
	}
	if cfg.Sources.Metadata.Format == "" {
		cfg.Sources.Metadata.Format = FormatJSON
	}
	if cfg.Sources.Region.Format == "" {
		cfg.Sources.Region.Format = FormatXLSX
	}
	if cfg.Output.Sink.Kind == "" {
		cfg.Output.Sink.Kind = "none"
	}
	if cfg.Output.Sink.Table == "" {
		cfg.Output.Sink.Table = cfg.Job
	}
}

// Severity levels for validation issues.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is a single validation finding.
type Issue struct {
	Severity string
	Path     string
	Message  string
}

// Validate checks the configuration and returns all findings. Errors make
// the config unusable; warnings are advisory.
func Validate(cfg Config) []Issue {
	var issues []Issue

	add := func(sev, path, msg string) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: msg})
	}

	if cfg.Sources.Sales.Path == "" && cfg.Sources.Metadata.Path == "" && cfg.Sources.Region.Path == "" {
		add(SeverityError, "sources", "at least one source path must be configured")
	}

	checkFormat := func(path string, s Source) {
		switch s.Format {
		case FormatCSV, FormatJSON, FormatXLSX, FormatHTML:
		default:
			add(SeverityError, path+".format", fmt.Sprintf("unsupported format %q", s.Format))
		}
		if s.Sheet != "" && s.Format != FormatXLSX {
			add(SeverityWarning, path+".sheet", "sheet is only used for xlsx sources")
		}
	}
	checkFormat("sources.sales", cfg.Sources.Sales)
	checkFormat("sources.metadata", cfg.Sources.Metadata)
	checkFormat("sources.region", cfg.Sources.Region)

	if cfg.Output.MergedCSV == "" {
		add(SeverityError, "output.merged_csv", "merged CSV path must not be empty")
	}
	if cfg.Output.Report == "" {
		add(SeverityError, "output.report", "report path must not be empty")
	}

	switch strings.ToLower(cfg.Output.Sink.Kind) {
	case "none", "sqlite", "postgres", "mssql":
	default:
		add(SeverityError, "output.sink.kind", fmt.Sprintf("unsupported sink kind %q", cfg.Output.Sink.Kind))
	}
	if cfg.Output.Sink.Kind != "none" && cfg.Output.Sink.DSN == "" {
		add(SeverityError, "output.sink.dsn", "sink DSN is required when a sink is configured")
	}

	return issues
}
