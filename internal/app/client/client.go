// Package client is the device-side application: a sqlite copy of the
// owner's budget, an HTTP connection to the sync server, and the agent that
// keeps the two converged.
package client

import (
	"fmt"

	"golang.org/x/exp/slog"

	"coinkeeper/internal/app/client/config"
)

type App struct {
	Config *config.Config
	Log    *slog.Logger
	Store  *SQLiteStorage
	API    *httpClient
	Tokens *TokenStore
	Agent  *Agent
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("prepare state directory: %w", err)
	}

	store, err := NewSQLiteStorage(cfg.DBPath, log)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	api := NewHTTPClient(cfg, log)
	tokens := NewTokenStore(cfg.TokenPath)
	if token, ok := tokens.Token(); ok {
		api.SetToken(token)
	}

	return &App{
		Config: cfg,
		Log:    log,
		Store:  store,
		API:    api,
		Tokens: tokens,
		Agent:  NewAgent(store, api, tokens, log),
	}, nil
}

func (a *App) Shutdown() {
	a.Agent.StopAutoSync()
	if err := a.Store.Close(); err != nil {
		a.Log.Error("close local store", "error", err)
	}
}
