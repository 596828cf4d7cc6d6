/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chatflow/internal/chatflow/config"
	"chatflow/internal/chatflow/openai"
	"chatflow/internal/chatflow/persist"
	"chatflow/internal/chatflow/store"
	"chatflow/internal/logging"
)

// buildStore wires config, persistence, transport, and the conversation
// store together for one command invocation. The returned cleanup must be
// called before exit.
func buildStore() (*store.Store, *config.Config, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("creating state directory: %w", err)
	}

	var blob persist.Blob
	cleanup := func() {}
	switch cfg.Storage {
	case "sqlite":
		db, err := persist.NewSQLite(filepath.Join(cfg.StateDir, "chatflow.db"))
		if err != nil {
			return nil, nil, nil, err
		}
		blob = db
		cleanup = func() { _ = db.Close() }
	case "", "file":
		fileBlob, err := persist.NewFile(cfg.StateDir)
		if err != nil {
			return nil, nil, nil, err
		}
		blob = fileBlob
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	token := os.ExpandEnv(cfg.Token)
	if token == "" {
		stored, err := store.ReadAPIKey(blob)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		token = stored
	}

	client := openai.NewClient(openai.Config{
		BaseURL:     cfg.BaseURL,
		Token:       token,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
	}, logging.Logger())

	st := store.New(client, blob, logging.Logger())
	if err := st.Load(); err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return st, cfg, cleanup, nil
}

// resolveSessionID matches a session by id prefix (minimum 4 characters).
func resolveSessionID(st *store.Store, prefix string) (string, error) {
	sessions := st.Sessions()
	if prefix == "latest" {
		if len(sessions) == 0 {
			return "", fmt.Errorf("no sessions found")
		}
		return sessions[0].ID, nil
	}
	if len(prefix) < 4 {
		return "", fmt.Errorf("session ID prefix must be at least 4 characters (got %d)", len(prefix))
	}

	var matches []string
	for _, sess := range sessions {
		if strings.HasPrefix(sess.ID, prefix) {
			matches = append(matches, sess.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("session not found: %s\n\nRun 'chatflow sessions list' to see available sessions.", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous session ID %q (%d matches); use a longer prefix", prefix, len(matches))
	}
}
