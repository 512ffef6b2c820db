// Package observability wires cmd/rdp-proxy's structured logging and
// Prometheus metrics. It replaces the teacher's internal/logging
// stdlib-log wrapper with go.uber.org/zap, and gives the proxy the
// counters and histograms its connection lifecycle needs.
//
// Neither the protocol core (cursor, pdu, svc, connector, acceptor,
// session) nor the codec packages import this package; a caller that
// wants events observed passes a *zap.Logger and *Metrics in from the
// outside.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger at the given level ("debug", "info",
// "warn", "error") in either "console" or "json" format.
func NewLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.Set(level); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
