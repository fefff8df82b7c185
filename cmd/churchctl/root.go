package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/config"
	dbpkg "github.com/BruksfildServices01/church-platform/internal/db"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "churchctl",
		Short:         "Church platform administration tools",
		SilenceUsage:  true,
	}
	cmd.AddCommand(
		newMigrateCmd(),
		newCreateSuperAdminCmd(),
		newCreateAdminCmd(),
		newHashPasswordCmd(),
	)
	return cmd
}

// connect loads configuration from the environment and opens the database.
func connect() (*gorm.DB, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := cfg.NewLogger()

	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return db, log, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
