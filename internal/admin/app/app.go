package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/karhula/forumdb/internal/config"
	"github.com/karhula/forumdb/internal/db"
	"github.com/karhula/forumdb/internal/message"
	"github.com/karhula/forumdb/internal/user"
)

type App struct {
	ConfigPath string
	Config     *config.Config
	DBPath     string
	Store      *db.Store

	Users    *user.Repo
	Messages *message.Repo
}

func New(configPath string) (*App, func(), error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(cfg.Paths.Data, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.Database), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	store, err := db.Open(cfg.Paths.Database, db.Options{
		ForeignKeys: cfg.Store.ForeignKeys,
		BusyTimeout: cfg.BusyTimeout(),
	})
	if err != nil {
		return nil, nil, err
	}

	if err := store.CreateSchema(); err != nil {
		store.Close()
		return nil, nil, err
	}

	a := &App{
		ConfigPath: configPath,
		Config:     cfg,
		DBPath:     cfg.Paths.Database,
		Store:      store,
		Users:      user.NewRepo(store.DB),
		Messages:   message.NewRepo(store.DB),
	}

	cleanup := func() {
		_ = store.Close()
	}

	return a, cleanup, nil
}
