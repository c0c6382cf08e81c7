// Package logging builds the zap logger shared by the session, controller and
// commands. Stdout belongs to the terminal UI, so logs go to a file.
package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

const logFileName = "w3token.log"

// New returns a logger writing to <dir>/w3token.log. Verbose mode uses the
// console encoder at debug level; otherwise JSON at info level. The returned
// close func syncs and closes the file.
func New(verbose bool, dir string) (*zap.Logger, func(), error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	//nolint:gosec // G304: path is built from the config dir
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := zap.New(newCore(verbose, zapcore.AddSync(f)))
	closeFn := func() {
		_ = logger.Sync()
		_ = f.Close()
	}
	return logger, closeFn, nil
}

func newCore(verbose bool, ws zapcore.WriteSyncer) zapcore.Core {
	var encoder zapcore.Encoder
	var level zapcore.Level

	if verbose {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		level = zap.DebugLevel
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		level = zap.InfoLevel
	}
	return zapcore.NewCore(encoder, ws, level)
}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}
