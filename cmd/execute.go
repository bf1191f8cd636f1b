// Package cmd contains the talentchat entry point: flag handling, logger
// setup, and the HTTP server lifecycle. main.go stays a minimal shim.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/talentdesk/talentchat/internal/config"
	"github.com/talentdesk/talentchat/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	Version   = "0.0.1"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Execute is the entry point called from main. Version and help work even
// when configuration is invalid.
func Execute() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			printVersion()
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{
		Level: parseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	slog.SetDefault(logger)

	return runServe(cfg, logger)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printVersion() {
	fmt.Printf("talentchat %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
}

func printHelp() {
	fmt.Print(`talentchat - talent pool chat and retrieval service

Usage:
  talentchat            Start the HTTP API server
  talentchat version    Print version information
  talentchat help       Show this help

Configuration comes from talentchat.yaml in the working directory and
TALENTCHAT_* environment variables. GEMINI_API_KEY enables embeddings and
chat generation; DATABASE_URL selects the persistent vector store.
`)
}
