// Package telemetry wires up the structured logger used throughout the
// assignment engine, colorized console output with six verbosity tiers
// mirroring the original tool's --verbosity flag.
package telemetry

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity tiers, lowest to highest. 0 prints only fatal errors, 5 prints
// every trace-level message the engine emits.
const (
	VerbosityFatal = iota
	VerbosityError
	VerbosityWarning
	VerbosityInfo
	VerbosityProgress
	VerbosityTrace
)

// levelForVerbosity maps a verbosity tier to the minimum zap level that
// tier allows through. Progress and Trace both map onto zap's Debug level,
// so the two tiers let through the same messages.
func levelForVerbosity(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityFatal:
		return zapcore.FatalLevel
	case verbosity == VerbosityError:
		return zapcore.ErrorLevel
	case verbosity == VerbosityWarning:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// InitLogger builds a zap.Logger writing colorized, human-readable output
// to stderr, gated at the zap level corresponding to verbosity (clamped to
// [VerbosityFatal, VerbosityTrace]).
func InitLogger(verbosity int) (*zap.Logger, error) {
	if verbosity < VerbosityFatal {
		verbosity = VerbosityFatal
	}
	if verbosity > VerbosityTrace {
		verbosity = VerbosityTrace
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(levelForVerbosity(verbosity)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to build logger: %w", err)
	}
	return logger, nil
}
