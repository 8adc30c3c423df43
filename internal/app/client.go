package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	intrnl "electrocord/internal"
	"electrocord/internal/storage"
)

// RunClient opens the local state store, wires the debug logger, and
// launches the Bubble Tea TUI with the provided configuration.
func RunClient(cfg ClientConfig) error {
	if cfg.APIBase == "" || cfg.SocketURL == "" {
		return errors.New("API base and socket URL are required")
	}

	logger := log.New(io.Discard, "", log.LstdFlags)
	if cfg.LogPath != "" {
		logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
		logger = log.New(logFile, "electrocord ", log.LstdFlags)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := storage.NewStore(cfg.StatePath)
	if err != nil {
		// A broken local store should not keep the user out of chat.
		logger.Printf("open state store: %v", err)
		store = nil
	}
	if store != nil {
		if err := store.Migrate(context.Background()); err != nil {
			logger.Printf("migrate state store: %v", err)
			_ = store.Close()
			store = nil
		}
	}
	if store != nil {
		defer store.Close()
	}

	return intrnl.RunClient(intrnl.ClientOptions{
		APIBase:   cfg.APIBase,
		SocketURL: cfg.SocketURL,
		Email:     cfg.Email,
		Store:     store,
		Logger:    logger,
	})
}
