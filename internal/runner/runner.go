package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"postpack/internal/cleanup"
	"postpack/internal/config"
	"postpack/internal/database"
	"postpack/internal/metrics"
	"postpack/internal/safety"
	"postpack/internal/scan"
)

// RunOnce cleans the output directory without deletion history
func RunOnce(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger, out io.Writer) (cleanup.Result, error) {
	return RunOnceWithDB(ctx, cfg, cleanup.OutputDir, logger, nil, out)
}

// RunOnceWithDB performs one cleanup pass over root and writes the summary
// line to out. Deletion failures only lower the count; the returned error is
// reserved for a cancelled context or an unusable out.
func RunOnceWithDB(ctx context.Context, cfg *config.Config, root string, logger logrus.FieldLogger, db *database.DeletionDB, out io.Writer) (cleanup.Result, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if out == nil {
		return cleanup.Result{}, errors.New("nil output writer")
	}

	select {
	case <-ctx.Done():
		return cleanup.Result{}, ctx.Err()
	default:
	}

	start := time.Now()
	runID := uuid.NewString()
	log := logger.WithFields(logrus.Fields{"run_id": runID, "root": root})

	entries, err := scan.List(root)
	if err != nil {
		log.WithError(err).Warn("cannot list output directory, nothing to delete")
		entries = nil
	}
	log.WithField("entries", len(entries)).Debug("listed output directory")

	cleaner := cleanup.NewCleaner(log, root)
	cleaner.SetValidator(safety.NewValidator(root, cfg.ArtifactPaths()))
	if db != nil {
		cleaner.SetRecorder(db, runID)
	}

	res := cleaner.Clean(entries)

	metrics.RecordRun(start, res.Deleted)
	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.WithError(err).WithField("textfile", cfg.Metrics.Textfile).Warn("failed to write metrics textfile")
		}
	}

	log.WithFields(logrus.Fields{
		"deleted":  res.Deleted,
		"failed":   res.Failed,
		"duration": time.Since(start).String(),
	}).Info("cycle complete")

	if _, err := fmt.Fprintln(out, cleanup.Summary(res.Deleted)); err != nil {
		return res, fmt.Errorf("write summary: %w", err)
	}
	return res, nil
}
