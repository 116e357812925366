// Package logging builds the diagnostic logger. Operator-facing output goes
// through ui.Console; this logger carries debug detail for troubleshooting.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

// Options selects the logger sinks.
type Options struct {
	Verbose bool      // debug level on the console sink, otherwise warn
	File    string    // optional JSON log file, rotated by size
	Console io.Writer // defaults to os.Stderr
}

// New builds a logger with a console core and an optional rotating file core.
func New(opts Options) (*zap.Logger, error) {
	out := opts.Console
	if out == nil {
		out = os.Stderr
	}

	level := zapcore.WarnLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(out), zap.NewAtomicLevelAt(level)),
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return nil, clierr.Wrap(clierr.CodeConfiguration, "creating log directory", err)
		}
		fileEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
		cores = append(cores, zapcore.NewCore(fileEnc, sink, zap.NewAtomicLevelAt(zapcore.DebugLevel)))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
