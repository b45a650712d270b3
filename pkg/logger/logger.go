package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL"`
	Sink     string        `yaml:"sink" envconfig:"LOG_SINK"`
}

// NewLogger builds a json zap logger named after the service.
// An empty Sink writes to stdout. A sink that cannot be opened is reported
// on stderr and stdout is used instead.
func NewLogger(cfg Log, name string) *zap.Logger {
	return newLogger(cfg, name, os.Stderr)
}

func newLogger(cfg Log, name string, stderr io.Writer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	sink, err := openSink(cfg.Sink)
	if err != nil {
		fmt.Fprintf(stderr, "logger: open sink %q: %v, writing to stdout\n", cfg.Sink, err)
		sink = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, zap.NewAtomicLevelAt(cfg.LogLevel))
	return zap.New(core, zap.AddCaller()).Named(name)
}

func openSink(path string) (zapcore.WriteSyncer, error) {
	if path == "" {
		return zapcore.AddSync(os.Stdout), nil
	}
	ws, _, err := zap.Open(path)
	return ws, err
}
