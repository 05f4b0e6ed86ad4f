// Package logging sets up the per-service daily log file shared by the
// standard logger and slog.
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Setup opens <baseDir>/<service>/log_YYYY-MM-DD.log and routes both the
// standard logger and the default slog logger to it and to stdout.
func Setup(baseDir, service string) (*os.File, error) {
	logDir := filepath.Join(baseDir, service)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	out := io.MultiWriter(os.Stdout, file)
	log.SetOutput(out)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: levelFromEnv()})))

	return file, nil
}

func levelFromEnv() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
