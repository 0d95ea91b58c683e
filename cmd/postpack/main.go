package main

import (
	"context"
	"os"

	"postpack/internal/cleanup"
	"postpack/internal/config"
	"postpack/internal/database"
	"postpack/internal/logging"
	"postpack/internal/runner"
)

// postpack takes no arguments. It removes everything inside ./dist, prints
// "Deleted N file(s)." and always exits 0 so it can never break packaging.
func main() {
	cfg, cfgErr := config.Load(config.FileName)
	if cfgErr != nil {
		cfg = config.Default()
	}

	logger := logging.NewWithConfig(cfg, os.Stderr)
	defer func() {
		if err := logger.Close(); err != nil {
			logger.WithError(err).Warn("failed to close log file")
		}
	}()

	if cfgErr != nil {
		logger.WithError(cfgErr).WithField("file", config.FileName).Warn("ignoring invalid configuration, using defaults")
	}

	// Deletion history is optional; a broken database never blocks cleanup
	var db *database.DeletionDB
	if cfg.DatabasePath != "" {
		var err error
		db, err = database.NewDeletionDB(cfg.DatabasePath)
		if err != nil {
			logger.WithError(err).WithField("database", cfg.DatabasePath).Warn("deletion history disabled")
			db = nil
		} else {
			defer func() {
				if err := db.Close(); err != nil {
					logger.WithError(err).Warn("failed to close database")
				}
			}()
		}
	}

	if _, err := runner.RunOnceWithDB(context.Background(), cfg, cleanup.OutputDir, logger, db, os.Stdout); err != nil {
		logger.WithError(err).Error("cleanup pass did not complete")
	}
}
