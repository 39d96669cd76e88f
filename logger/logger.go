package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/filesharinghq/core/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*zerolog.Logger
}

var (
	logger Logger
	once   sync.Once
)

func newFileWriter(filename string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    50,
		MaxBackups: 3,
	}
}

// Get returns the process logger, built once from the first configuration
// it receives. Inside Lambda it writes JSON lines to stdout, which end up
// in CloudWatch as-is; elsewhere it uses the console writer.
func Get(cfg config.AppConfig) *Logger {
	once.Do(func() {
		var writers []io.Writer
		if len(cfg.LambdaFunction) > 0 {
			writers = append(writers, os.Stdout)
		} else {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Stamp})
		}

		if cfg.LogFilename != "" {
			writers = append(writers, newFileWriter(cfg.LogFilename))
		}

		zerolog.SetGlobalLevel(level(cfg))

		ctx := zerolog.New(io.MultiWriter(writers...)).With().Timestamp()
		if len(cfg.LambdaFunction) > 0 {
			ctx = ctx.Str("function", cfg.LambdaFunction)
		}

		zeroLogger := ctx.Logger()
		logger = Logger{&zeroLogger}
	})

	return &logger
}

func level(cfg config.AppConfig) zerolog.Level {
	if cfg.AppEnv == "dev" {
		return zerolog.TraceLevel
	}

	if cfg.LogConsoleLevel == "" {
		return zerolog.InfoLevel
	}

	lvl, err := zerolog.ParseLevel(cfg.LogConsoleLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q, defaulting to info\n", cfg.LogConsoleLevel)
		return zerolog.InfoLevel
	}
	return lvl
}

// New wraps a logger writing JSON lines to w.
func New(w io.Writer) *Logger {
	zeroLogger := zerolog.New(w).With().Timestamp().Logger()
	return &Logger{&zeroLogger}
}

// Nop returns a logger discarding everything.
func Nop() *Logger {
	zeroLogger := zerolog.Nop()
	return &Logger{&zeroLogger}
}
