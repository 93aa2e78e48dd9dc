package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lexicalmathical/notehub/config"
	"github.com/lexicalmathical/notehub/internal/db"
	"github.com/lexicalmathical/notehub/internal/models"
	"github.com/spf13/cobra"
)

var configPathFlag string

var rootCmd = &cobra.Command{
	Use:   "notehub",
	Short: "Interact with GitHub issues as local notes",
	Long: `notehub mirrors GitHub issues for tracked repositories into a local
SQLite cache and serves reads from that cache, fetching single issues on
demand when they are missing.

Typical workflow:
  notehub init --token <token> --repo owner/name
  notehub sync
  notehub issue list
  notehub issue view 42`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to configuration file (default: per-user config dir)")
}

// appContext carries the state every command operates on: the loaded
// configuration and the open cache database.
type appContext struct {
	cfg        *config.Config
	configPath string
	db         *db.DB
}

func openApp() (*appContext, error) {
	path := configPathFlag
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := database.Initialize(); err != nil {
		database.Close()
		return nil, err
	}

	return &appContext{cfg: cfg, configPath: path, db: database}, nil
}

func (a *appContext) close() {
	a.db.Close()
}

// targetRepo resolves which repository a command operates on: the explicit
// flag value when given, otherwise the registry default. Commands never fall
// back to an arbitrary tracked repository.
func (a *appContext) targetRepo(flagValue string) (*models.Repository, error) {
	if flagValue != "" {
		return a.db.GetRepository(flagValue)
	}
	return a.db.DefaultRepository()
}
