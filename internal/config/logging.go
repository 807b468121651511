package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// logFilePattern matches the files SetupLogFile creates, oldest first when
// sorted by name.
const logFilePattern = "docwindow-*.log"

// SetupLogFile opens a fresh timestamped log file under dir and prunes all
// but the maxFiles most recent ones. The caller owns the returned handle.
func SetupLogFile(dir string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("docwindow-%s.log",
		time.Now().Format("2006-01-02T15-04-05")))
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	if err := pruneOldLogs(dir, maxFiles); err != nil {
		// Pruning failures must not take logging down with them.
		fmt.Fprintf(os.Stderr, "warning: failed to prune old logs: %v\n", err)
	}
	return f, nil
}

func pruneOldLogs(dir string, maxFiles int) error {
	files, err := filepath.Glob(filepath.Join(dir, logFilePattern))
	if err != nil {
		return err
	}
	if len(files) <= maxFiles {
		return nil
	}

	// The timestamp in the name sorts chronologically.
	sort.Strings(files)
	for _, file := range files[:len(files)-maxFiles] {
		if err := os.Remove(file); err != nil {
			return fmt.Errorf("remove %s: %w", file, err)
		}
	}
	return nil
}
