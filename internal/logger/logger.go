// Package logger is a process-wide zap logger with sugared helpers. Until
// Init or UseLogger runs, the helpers discard everything.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base  *zap.Logger
	sugar *zap.SugaredLogger
	sink  *os.File
)

// Init points the logger at the log file, truncating it. See Path for
// where that file lives.
func Init(debug bool) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	sink = f

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(f), level)
	// helpers add one frame
	UseLogger(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)))
	Info("logger initialized", "path", path, "debug", debug)
	return nil
}

// UseLogger installs l, e.g. an observer core in tests.
func UseLogger(l *zap.Logger) {
	base = l
	sugar = l.Sugar()
}

// Close flushes and closes the log file.
func Close() {
	if base != nil {
		_ = base.Sync()
	}
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
}

// Path resolves the log file: $TABSHIFT_LOG_FILE, then tabshift.log under
// $TABSHIFT_CONFIG_HOME, $XDG_CONFIG_HOME/tabshift or ~/.config/tabshift.
func Path() (string, error) {
	if v := os.Getenv("TABSHIFT_LOG_FILE"); v != "" {
		return v, nil
	}
	dir := os.Getenv("TABSHIFT_CONFIG_HOME")
	if dir == "" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "tabshift")
		}
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config", "tabshift")
	}
	return filepath.Join(dir, "tabshift.log"), nil
}

func Debug(msg string, kv ...any) {
	if sugar != nil {
		sugar.Debugw(msg, kv...)
	}
}

func Info(msg string, kv ...any) {
	if sugar != nil {
		sugar.Infow(msg, kv...)
	}
}

func Warn(msg string, kv ...any) {
	if sugar != nil {
		sugar.Warnw(msg, kv...)
	}
}

func Error(msg string, kv ...any) {
	if sugar != nil {
		sugar.Errorw(msg, kv...)
	}
}
