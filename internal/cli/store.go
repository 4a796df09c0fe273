package cli

import (
	"context"
	"log/slog"

	"github.com/roach88/rdfio/internal/config"
	"github.com/roach88/rdfio/internal/store"

	// Store kinds register themselves on import.
	_ "github.com/roach88/rdfio/internal/store/native"
	_ "github.com/roach88/rdfio/internal/store/remote"
)

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}

	if opts.Store != "" && opts.Store != cfg.Store.Kind {
		cfg.Store = config.Store{Kind: opts.Store, Timeout: cfg.Store.Timeout}
	}
	if opts.Path != "" {
		cfg.Store.Path = opts.Path
	}
	if opts.URL != "" {
		cfg.Store.URL = opts.URL
		cfg.Store.QueryURL = opts.URL
		cfg.Store.UpdateURL = opts.URL
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, nil
}

// session is an open repository and one connection to it.
type session struct {
	cfg  *config.Config
	repo store.Repository
	conn store.Connection
}

func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	slog.Debug("opening store", "kind", cfg.Store.Kind, "path", cfg.Store.Path, "url", cfg.Store.URL)
	repo, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	conn, err := repo.Connect(ctx)
	if err != nil {
		repo.Close()
		return nil, WrapExitError(ExitFailure, "failed to connect to store", err)
	}
	return &session{cfg: cfg, repo: repo, conn: conn}, nil
}

func (s *session) Close() {
	if err := s.conn.Close(); err != nil {
		slog.Error("error closing connection", "error", err)
	}
	if err := s.repo.Close(); err != nil {
		slog.Error("error closing store", "error", err)
	}
}
