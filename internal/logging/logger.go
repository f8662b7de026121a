// Package logging builds the zap logger used across relflow.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LevelDebug logs every git command and its output.
	LevelDebug = "debug"

	// LevelInfo logs step outcomes.
	LevelInfo = "info"

	// LevelNone disables logging.
	LevelNone = "none"

	// FormatConsole writes human readable lines. The default.
	FormatConsole = "console"

	// FormatJSON writes one JSON object per entry, for CI log collectors.
	FormatJSON = "json"
)

// New returns a production zap logger writing JSON to stderr at level.
func New(level string) (*zap.Logger, error) {
	if level == LevelNone {
		return zap.NewNop(), nil
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// NewWithWriter returns a console logger writing to w at level.
func NewWithWriter(level string, w io.Writer) (*zap.Logger, error) {
	if level == LevelNone {
		return zap.NewNop(), nil
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func parseLevel(level string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	err := lvl.UnmarshalText([]byte(level))
	return lvl, err
}
