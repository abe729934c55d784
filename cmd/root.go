// Package cmd holds the fileshare command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pawanx64/File-Sharing-Backend/initializers"
	"github.com/pawanx64/File-Sharing-Backend/storage"
)

var rootCmd = &cobra.Command{
	Use:           "fileshare",
	Short:         "File sharing backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// app holds the handles every command needs. The caller must defer Close.
type app struct {
	cfg   *initializers.Config
	log   *zap.SugaredLogger
	db    *gorm.DB
	store storage.ObjectStore
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := initializers.LoadConfig()
	if err != nil {
		return nil, err
	}

	log, err := initializers.NewLogger(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return nil, err
	}

	db, err := initializers.ConnectToDatabase(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}

	store, err := initializers.NewObjectStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}

	return &app{cfg: cfg, log: log, db: db, store: store}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

func init() {
	rootCmd.AddCommand(serveCmd, reconcileCmd)
}
