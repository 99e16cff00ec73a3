// Package logging builds the zap logger used for operational messages.
// Diagnostics never go through the logger; they are program output.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels accepted by New.
const LevelNames = "off|debug|info|warn|error"

// New returns a console logger writing to w at the given level.
// "off" returns a no-op logger.
func New(level string, w io.Writer) (*zap.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "off" || level == "none" {
		return zap.NewNop(), nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q (expected: %s)", level, LevelNames)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	encCfg.NameKey = "logger"
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core).Named("portlint"), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
