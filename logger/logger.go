package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Global logger instance
	Logger *zap.SugaredLogger
	// Flag to track if JSON output is enabled
	JSONOutput bool
)

func init() {
	// Initialize with a safe no-op logger at package load time
	// This prevents nil pointer panics if logger is used before Initialize() is called
	Logger = zap.NewNop().Sugar()
}

// Options configures Initialize.
type Options struct {
	JSON      bool
	Verbosity int
	// File, when set, receives JSON log lines through a rotating writer
	File       string
	MaxSizeMB  int
	MaxBackups int
	// Output overrides stderr for console logs (tests)
	Output io.Writer
}

// Initialize sets up the global logger.
// Console output goes to stderr so generated content written to stdout stays clean.
func Initialize(opts Options) error {
	JSONOutput = opts.JSON
	level := VerbosityToLevel(opts.Verbosity)

	var out io.Writer = os.Stderr
	if opts.Output != nil {
		out = opts.Output
	}

	var console zapcore.Core
	if opts.JSON {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "ts"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		console = zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(out), level)
	} else {
		// Human-readable console output with minimal, calm formatting
		console = zapcore.NewCore(newMinimalEncoder(), zapcore.AddSync(out), level)
	}

	cores := []zapcore.Core{console}
	if opts.File != "" {
		cores = append(cores, fileCore(opts))
	}

	Logger = zap.New(zapcore.NewTee(cores...)).Sugar()
	return nil
}

// fileCore writes debug-level JSON logs to a rotating file regardless of console verbosity.
func fileCore(opts Options) zapcore.Core {
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	backups := opts.MaxBackups
	if backups <= 0 {
		backups = 3
	}
	w := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize, // megabytes
		MaxBackups: backups,
		MaxAge:     28, // days
		Compress:   true,
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), zapcore.DebugLevel)
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		Logger.Sync()
	}
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Infof logs a formatted info message
func Infof(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Infof(format, args...)
	}
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Warnf(format, args...)
	}
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}

// Debugf logs a formatted debug message
func Debugf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Debugf(format, args...)
	}
}
