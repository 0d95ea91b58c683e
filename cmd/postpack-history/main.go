package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"postpack/internal/database"
	"postpack/internal/exitcodes"
	"postpack/internal/logging"
)

type options struct {
	dbPath      string
	recent      int
	runs        int
	run         string
	stats       bool
	action      string
	pathPattern string
	largest     int
	days        int
	prune       int
	jsonOutput  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.dbPath, "db", "deletions.db", "Path to deletion history database")
	flag.IntVar(&opts.recent, "recent", 0, "Show N most recent entries")
	flag.IntVar(&opts.runs, "runs", 0, "Show N most recent runs")
	flag.StringVar(&opts.run, "run", "", "Show every entry of one run ID")
	flag.BoolVar(&opts.stats, "stats", false, "Show deletion statistics")
	flag.StringVar(&opts.action, "action", "", "Filter by action (DELETE, ERROR)")
	flag.StringVar(&opts.pathPattern, "path", "", "Filter by path pattern (SQL LIKE syntax)")
	flag.IntVar(&opts.largest, "largest", 0, "Show N largest deletions")
	flag.IntVar(&opts.days, "days", 30, "Number of days for statistics")
	flag.IntVar(&opts.prune, "prune", 0, "Remove entries older than N days and compact the database")
	flag.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	flag.Parse()

	logger := logging.New()

	if !opts.selected() {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "\nExamples:")
		fmt.Fprintln(os.Stderr, "  postpack-history -db deletions.db -runs 5        # Show the last 5 runs")
		fmt.Fprintln(os.Stderr, "  postpack-history -db deletions.db -recent 10     # Show 10 most recent entries")
		fmt.Fprintln(os.Stderr, "  postpack-history -db deletions.db -action ERROR  # Show entries that were not removed")
		fmt.Fprintln(os.Stderr, "  postpack-history -db deletions.db -stats -days 7 # Show weekly statistics")
		fmt.Fprintln(os.Stderr, "  postpack-history -db deletions.db -prune 90      # Drop entries older than 90 days")
		os.Exit(exitcodes.Usage)
	}

	if _, err := os.Stat(opts.dbPath); err != nil {
		logger.WithError(err).WithField("database", opts.dbPath).Error("database not found")
		os.Exit(exitcodes.RuntimeError)
	}

	db, err := database.NewDeletionDB(opts.dbPath)
	if err != nil {
		logger.WithError(err).WithField("database", opts.dbPath).Error("failed to open database")
		os.Exit(exitcodes.RuntimeError)
	}

	err = query(db, opts, os.Stdout)
	if cerr := db.Close(); cerr != nil {
		logger.WithError(cerr).Warn("failed to close database")
	}
	if err != nil {
		logger.WithError(err).Error("query failed")
		os.Exit(exitcodes.RuntimeError)
	}
	os.Exit(exitcodes.Success)
}

func (o options) selected() bool {
	return o.prune > 0 || o.stats || o.recent > 0 || o.runs > 0 || o.run != "" ||
		o.action != "" || o.pathPattern != "" || o.largest > 0
}

func query(db *database.DeletionDB, opts options, w io.Writer) error {
	switch {
	case opts.prune > 0:
		n, err := db.Prune(opts.prune)
		if err != nil {
			return fmt.Errorf("prune: %w", err)
		}
		fmt.Fprintf(w, "Pruned %d record(s) older than %d days\n", n, opts.prune)
		return nil
	case opts.stats:
		stats, err := db.GetDeletionStats(opts.days)
		if err != nil {
			return fmt.Errorf("get statistics: %w", err)
		}
		if opts.jsonOutput {
			return writeJSON(w, stats)
		}
		printStats(w, stats, opts.days)
		return nil
	case opts.runs > 0:
		runs, err := db.GetRunSummaries(opts.runs)
		if err != nil {
			return fmt.Errorf("get runs: %w", err)
		}
		if opts.jsonOutput {
			return writeJSON(w, runs)
		}
		printRuns(w, runs)
		return nil
	}

	var (
		records []database.DeletionRecord
		err     error
	)
	switch {
	case opts.recent > 0:
		records, err = db.GetRecentDeletions(opts.recent)
	case opts.run != "":
		records, err = db.GetDeletionsByRun(opts.run)
	case opts.action != "":
		records, err = db.GetDeletionsByAction(opts.action)
	case opts.pathPattern != "":
		records, err = db.GetDeletionsByPath(opts.pathPattern)
	case opts.largest > 0:
		records, err = db.GetLargestDeletions(opts.largest)
	}
	if err != nil {
		return fmt.Errorf("query deletions: %w", err)
	}

	if opts.jsonOutput {
		return writeJSON(w, records)
	}
	printRecords(w, records)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStats(w io.Writer, stats *database.DeletionStats, days int) {
	fmt.Fprintf(w, "Deletion Statistics (Last %d days)\n", days)
	fmt.Fprintf(w, "Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Runs:             %d\n", stats.Runs)
	fmt.Fprintf(w, "Total Deletions:  %d\n", stats.TotalDeletions)
	fmt.Fprintf(w, "Total Errors:     %d\n", stats.TotalErrors)
	fmt.Fprintf(w, "Space Freed:      %s\n", formatBytes(stats.TotalSpaceFreed))

	if len(stats.ByObjectType) > 0 {
		fmt.Fprintln(w, "\nBy Object Type:")
		for objectType, count := range stats.ByObjectType {
			fmt.Fprintf(w, "  %-15s %d\n", objectType, count)
		}
	}
}

func printRuns(w io.Writer, runs []database.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Run\tStarted\tDeleted\tErrors\tFreed")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			r.RunID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Deleted, r.Errors, formatBytes(r.BytesFreed))
	}
	_ = tw.Flush()
}

func printRecords(w io.Writer, records []database.DeletionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTimestamp\tAction\tType\tSize\tPath\tError")
	_, _ = fmt.Fprintln(tw, "--\t---------\t------\t----\t----\t----\t-----")

	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.Action, r.ObjectType,
			formatBytes(r.Size), r.Path, r.ErrorMessage)
	}
	_ = tw.Flush()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
