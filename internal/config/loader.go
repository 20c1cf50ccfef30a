package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
// An empty document yields the zero [Config].
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Corrector
	if cfg.Corrector.MaxEditDistance < 0 {
		errs = append(errs, fmt.Errorf("corrector.max_edit_distance %d must not be negative", cfg.Corrector.MaxEditDistance))
	}
	if cfg.Corrector.Workers < 0 {
		errs = append(errs, fmt.Errorf("corrector.workers %d must not be negative", cfg.Corrector.Workers))
	}

	// Dictionary
	for rom, canon := range cfg.Dictionary.Terms {
		if rom == "" {
			errs = append(errs, fmt.Errorf("dictionary.terms: empty romanization for %q", canon))
		}
		if canon == "" {
			errs = append(errs, fmt.Errorf("dictionary.terms[%q]: canonical term is required", rom))
		}
	}
	if len(cfg.Dictionary.Terms) == 0 && cfg.Dictionary.Path == "" && cfg.Dictionary.PostgresDSN == "" {
		slog.Warn("no dictionary source configured; text will pass through unchanged")
	}

	// Telemetry
	switch cfg.Telemetry.TraceExporter {
	case "", "none", "stdout":
	default:
		errs = append(errs, fmt.Errorf("telemetry.trace_exporter %q is invalid; valid values: none, stdout", cfg.Telemetry.TraceExporter))
	}
	if r := cfg.Telemetry.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio %g must be between 0 and 1", r))
	}

	return errors.Join(errs...)
}
