package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kataras/golog"
)

// LogWriter is the writer used for application and database logs.
var LogWriter io.Writer = os.Stdout

// LogFilePath returns the path to the sync service log file.
func LogFilePath() string {
	if p := strings.TrimSpace(os.Getenv("LOG_FILE")); p != "" {
		return p
	}
	return filepath.Join("logs", "workable-sync.log")
}

// InitLogging prepares the log file and points both the standard logger and
// golog at it. LOG_LEVEL accepts debug, info, warn, error or disable.
func InitLogging() (*os.File, io.Writer) {
	logPath := filepath.Dir(LogFilePath())
	if err := os.MkdirAll(logPath, os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
	}

	logFile, err := os.OpenFile(LogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		LogWriter = os.Stdout
	} else {
		LogWriter = io.MultiWriter(os.Stdout, logFile)
	}

	log.SetOutput(LogWriter)
	golog.SetOutput(LogWriter)
	golog.SetLevel(logLevel())
	golog.SetPrefix("[workable-sync] ")

	return logFile, LogWriter
}

func logLevel() string {
	level := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	switch level {
	case "debug", "info", "warn", "error", "disable":
		return level
	default:
		return "info"
	}
}
