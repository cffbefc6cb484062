package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chunkslate/internal/config"
)

// Init 初始化全局日志，返回的函数用于关闭日志文件
func Init(cfg *config.LogConfig) (func() error, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	timeFormat := time.RFC3339
	switch cfg.TimeFormat {
	case "Unix":
		timeFormat = zerolog.TimeFormatUnix
	case "UnixMs":
		timeFormat = zerolog.TimeFormatUnixMs
	case "RFC3339Nano":
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat

	closer := func() error { return nil }
	var output io.Writer = os.Stdout
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "file":
		if cfg.FilePath != "" {
			file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, err
			}
			output = file
			closer = file.Close
		}
	}

	// Console 格式 (开发环境友好)
	if cfg.Format == "console" {
		consoleTime := time.RFC3339
		if timeFormat == time.RFC3339Nano {
			consoleTime = time.RFC3339Nano
		}
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: consoleTime,
			NoColor:    cfg.Output == "file",
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()
	return closer, nil
}

// Component 返回带 component 字段的子 logger
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
