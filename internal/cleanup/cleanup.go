package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"postpack/internal/database"
	"postpack/internal/fsops"
	"postpack/internal/metrics"
	"postpack/internal/safety"
	"postpack/internal/scan"
)

// OutputDir is the packaging output directory whose entries are removed.
// It is resolved against the working directory.
const OutputDir = "dist"

// Recorder persists per-entry outcomes. *database.DeletionDB implements it.
type Recorder interface {
	RecordDeletion(runID, action string, entry scan.Entry, errorMsg string) error
}

// Outcome is the result of one deletion attempt
type Outcome struct {
	Entry   scan.Entry
	Deleted bool
	Err     error // *DeletionError when Deleted is false
}

// Result aggregates the outcomes of one pass
type Result struct {
	Deleted    int
	Failed     int
	BytesFreed int64
	Outcomes   []Outcome
}

// Cleaner removes output directory entries and counts the successes
type Cleaner struct {
	logger    logrus.FieldLogger
	deleter   fsops.Deleter
	validator *safety.Validator
	recorder  Recorder
	runID     string
}

// NewCleaner creates a Cleaner confined to root
func NewCleaner(logger logrus.FieldLogger, root string) *Cleaner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	metrics.Init()
	return &Cleaner{
		logger:    logger,
		deleter:   fsops.OSDeleter{},
		validator: safety.NewValidator(root, nil),
	}
}

// SetDeleter replaces the filesystem deleter
func (c *Cleaner) SetDeleter(d fsops.Deleter) {
	c.deleter = d
}

// SetValidator replaces the safety validator
func (c *Cleaner) SetValidator(v *safety.Validator) {
	c.validator = v
}

// SetRecorder enables history recording under runID
func (c *Cleaner) SetRecorder(r Recorder, runID string) {
	c.recorder = r
	c.runID = runID
}

// Clean attempts to delete every entry, in order, and tallies the successes.
// Individual failures are logged and recorded, never returned.
func (c *Cleaner) Clean(entries []scan.Entry) Result {
	var res Result
	res.Outcomes = make([]Outcome, 0, len(entries))

	for _, e := range entries {
		err := c.DeleteEntry(e)
		out := Outcome{Entry: e, Deleted: err == nil, Err: err}
		res.Outcomes = append(res.Outcomes, out)
		c.observe(out)

		if out.Deleted {
			res.Deleted++
			res.BytesFreed += e.Size
		} else {
			res.Failed++
		}
	}

	c.logger.WithFields(logrus.Fields{
		"deleted":     res.Deleted,
		"failed":      res.Failed,
		"bytes_freed": res.BytesFreed,
	}).Info("cleanup complete")

	return res
}

// DeleteEntry removes a single entry by its full path inside the output directory.
// A nil return means a removal actually happened.
func (c *Cleaner) DeleteEntry(e scan.Entry) error {
	if c.validator != nil {
		if err := c.validator.ValidateDeleteTarget(e.Path); err != nil {
			return &DeletionError{Op: "validate", Path: e.Path, Err: err}
		}
	}

	// Kind is re-read here; the entry may have changed since it was listed.
	linfo, err := os.Lstat(e.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrNotFound
		}
		return &DeletionError{Op: "stat", Path: e.Path, Err: err}
	}

	switch kind := scan.Classify(e.Path); {
	case kind == scan.KindFile:
		// Removes the link itself when e.Path is a symlink to a file.
		if err := c.deleter.Remove(e.Path); err != nil {
			return &DeletionError{Op: "remove", Path: e.Path, Err: err}
		}
	case kind == scan.KindDir && linfo.Mode()&os.ModeSymlink != 0:
		return &DeletionError{Op: "remove_all", Path: e.Path, Err: ErrSymlinkDir}
	case kind == scan.KindDir:
		if err := c.deleter.RemoveAll(e.Path); err != nil {
			return &DeletionError{Op: "remove_all", Path: e.Path, Err: err}
		}
	default:
		return &DeletionError{Op: "stat", Path: e.Path, Err: ErrUnsupportedType}
	}

	return nil
}

func (c *Cleaner) observe(out Outcome) {
	log := c.logger.WithFields(logrus.Fields{
		"path":   out.Entry.Path,
		"object": out.Entry.Kind.String(),
		"size":   out.Entry.Size,
	})

	action := database.ActionDelete
	errMsg := ""
	if out.Deleted {
		log.Debug("deleted entry")
		metrics.RecordDeletion(out.Entry.Size)
	} else {
		action = database.ActionError
		errMsg = out.Err.Error()
		log.WithError(out.Err).Warn("entry not removable")
		metrics.RecordFailure(Reason(out.Err))
	}

	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordDeletion(c.runID, action, out.Entry, errMsg); err != nil {
		// History is best effort; it never changes the outcome.
		c.logger.WithError(err).WithField("path", out.Entry.Path).Error("failed to record deletion history")
	}
}

// Summary renders the single line printed after a pass.
func Summary(deleted int) string {
	return fmt.Sprintf("Deleted %d file(s).", deleted)
}
