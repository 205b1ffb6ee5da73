// Package slogx holds the slog attribute helpers shared by the analysis
// packages so log keys stay consistent across providers, engine and CLI.
package slogx

import (
	"log/slog"
	"time"
)

// Attribute keys used throughout the module.
const (
	KeyLoggerName = "logger"
	KeyError      = "error"
	KeyAnalysis   = "analysis_id"
	KeyProvider   = "provider"
	KeyTemplate   = "template"
	KeyCategory   = "category"
	KeyDuration   = "duration"
)

// Error returns an attribute carrying the error message. A nil error is
// rendered as an empty string rather than panicking.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// LoggerName tags a record with the component that logged it.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Analysis tags a record with an analysis id.
func Analysis(id string) slog.Attr {
	return slog.String(KeyAnalysis, id)
}

// Provider tags a record with a provider id.
func Provider(id string) slog.Attr {
	return slog.String(KeyProvider, id)
}

// Template tags a record with a template id.
func Template(id string) slog.Attr {
	return slog.String(KeyTemplate, id)
}

// Category tags a record with a category key.
func Category(key string) slog.Attr {
	return slog.String(KeyCategory, key)
}

// Duration logs d in milliseconds, the unit analysis records use.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(KeyDuration, d.Milliseconds())
}

// Run groups the identifiers of one analysis run.
func Run(analysisID, providerID, templateID, categoryKey string) slog.Attr {
	return slog.Group("run",
		Analysis(analysisID),
		Provider(providerID),
		Template(templateID),
		Category(categoryKey),
	)
}
