// Package config holds process configuration for the loan-score services.
//
// Service configuration comes from the environment (prefix LOANSCORE_),
// mirroring how the pipeline is deployed: one flat set of variables, no
// config files to ship alongside the binary. CLI flags may override
// individual fields after Load.
package config

import "github.com/kelseyhightower/envconfig"

// Service is the environment-driven configuration shared by cmd/features
// and cmd/server.
type Service struct {
	// DataDir is where the source CSV files live and where the assembled
	// feature CSV is written.
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	// SchemaDir is where the JSON schema descriptor is written. It is kept
	// separate from DataDir because the descriptor is consumed by the UI
	// deployment, not by the pipeline.
	SchemaDir string `envconfig:"SCHEMA_DIR" default:"schema"`

	// SourceBaseURL, when set, lets the loader download missing source CSVs
	// from <SourceBaseURL>/<file>. When empty, all files must already be
	// present under DataDir.
	SourceBaseURL string `envconfig:"SOURCE_BASE_URL"`

	// Addr is the HTTP listen address for cmd/server.
	Addr string `envconfig:"ADDR" default:":8080"`

	// StorageKind selects an optional feature-store backend
	// ("sqlite" | "postgres" | "mssql"). Empty disables persistence; the
	// CSV artifacts remain the canonical outputs either way.
	StorageKind string `envconfig:"STORAGE_KIND"`
	StorageDSN  string `envconfig:"STORAGE_DSN"`

	// MetricsBackend selects the metrics sink ("datadog" | "pushgateway" |
	// "none"). MetricsTags is a comma-separated tag list (k:v,k:v).
	MetricsBackend string `envconfig:"METRICS_BACKEND"`
	MetricsTags    string `envconfig:"METRICS_TAGS"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL" default:"http://localhost:9091"`

	// SamplingFrequency is the default primary-table sampling used when a
	// request does not specify one. 1 keeps every row, 10 keeps every 10th.
	SamplingFrequency int `envconfig:"SAMPLING_FREQUENCY" default:"1"`

	// TargetVariable is the default training target column.
	TargetVariable string `envconfig:"TARGET_VARIABLE" default:"TARGET"`
}

// Load reads Service configuration from the environment.
func Load() (Service, error) {
	var s Service
	err := envconfig.Process("loanscore", &s)
	return s, err
}
