// Package config provides the configuration schema, loader, and file watcher
// for the homonym correction service.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Corrector  CorrectorConfig  `yaml:"corrector"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// CorrectorConfig tunes the homophone correction pipeline.
type CorrectorConfig struct {
	// Fuzzy enables the fuzzy phonetic fold (sh/s, n/l, ang/an, ...).
	// Defaults to true when omitted.
	Fuzzy *bool `yaml:"fuzzy"`

	// MaxEditDistance is the exclusive edit-distance limit for applying a
	// hit. Zero selects the default of 3.
	MaxEditDistance int `yaml:"max_edit_distance"`

	// Workers bounds batch parallelism. Zero selects GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// FuzzyEnabled reports whether fuzzy folding is on, applying the default.
func (c CorrectorConfig) FuzzyEnabled() bool {
	return c.Fuzzy == nil || *c.Fuzzy
}

// DictionaryConfig declares where the term table comes from. Sources are
// combined in this order: inline Terms, the YAML file at Path, then the
// PostgreSQL table. When two sources fold to the same key the earlier one
// wins.
type DictionaryConfig struct {
	// Terms maps reference romanizations to canonical terms, e.g.
	// xueyangbaohedu: 血氧饱和度.
	Terms map[string]string `yaml:"terms"`

	// Path is an optional YAML term file.
	Path string `yaml:"path"`

	// PostgresDSN is an optional PostgreSQL connection string for the
	// homonym_terms table.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// TelemetryConfig configures the OpenTelemetry resource and span export.
// Telemetry settings are read at startup only.
type TelemetryConfig struct {
	// ServiceName is reported as service.name. Defaults to "homonym".
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is reported as service.version. Defaults to the module
	// version of the running binary.
	ServiceVersion string `yaml:"service_version"`

	// TraceExporter is "none" (default) or "stdout".
	TraceExporter string `yaml:"trace_exporter"`

	// TracePath is the file stdout-exported spans are appended to. Empty
	// means stderr.
	TracePath string `yaml:"trace_path"`

	// SampleRatio is the fraction of requests traced, in [0, 1]. Zero traces
	// every request.
	SampleRatio float64 `yaml:"sample_ratio"`
}
