package app

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production always emits JSON so the
// aggregator can parse it; elsewhere the format follows LOG_FORMAT, with
// source locations attached for local debugging.
func NewLogger(cfg *Config) *slog.Logger {
	return newLoggerTo(os.Stdout, cfg)
}

func newLoggerTo(w io.Writer, cfg *Config) *slog.Logger {
	var handler slog.Handler
	if cfg != nil && (cfg.IsProduction() || cfg.LogFormat == "json") {
		handler = slog.NewJSONHandler(w, nil)
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{AddSource: true})
	}
	return slog.New(handler).With(slog.String("service", "atlas"))
}
