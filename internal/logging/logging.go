// Package logging constructs the single *zap.Logger each BDP process
// builds once at startup and passes down by reference, following
// theRebelliousNerd-codenerd's zap idiom (a package-level logger built
// once, never a global mutable singleton reset mid-run) — the teacher
// itself only carries zap transitively and has no logging package of its
// own to imitate directly.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how New builds the process logger.
type Options struct {
	// Debug enables development-mode logging (human-readable console
	// encoding, debug level, stack traces on warn+).
	Debug bool
	// Component names the process in every log line ("bdp", "bdp-server").
	Component string
}

// New builds the process-wide logger. Called exactly once at startup;
// every collaborator that wants a logger takes one as a constructor
// argument instead of reaching for a package-level global.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if opts.Component != "" {
		logger = logger.With(zap.String("component", opts.Component))
	}
	return logger, nil
}
