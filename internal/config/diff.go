package config

import "maps"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// CorrectorChanged is true if fuzzy folding, the edit-distance limit or
	// the worker count changed.
	CorrectorChanged bool

	// DictionaryChanged is true if inline terms or any term source changed.
	DictionaryChanged bool
}

// RebuildRequired reports whether the reviser must be recompiled.
func (d ConfigDiff) RebuildRequired() bool {
	return d.CorrectorChanged || d.DictionaryChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	oc, nc := old.Corrector, new.Corrector
	if oc.FuzzyEnabled() != nc.FuzzyEnabled() ||
		oc.MaxEditDistance != nc.MaxEditDistance ||
		oc.Workers != nc.Workers {
		d.CorrectorChanged = true
	}

	od, nd := old.Dictionary, new.Dictionary
	if od.Path != nd.Path ||
		od.PostgresDSN != nd.PostgresDSN ||
		!maps.Equal(od.Terms, nd.Terms) {
		d.DictionaryChanged = true
	}

	return d
}
