// Package logging writes per-run JSONL logs and finds old ones.
package logging

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunLogger manages the JSONL log file for a single dispatch run.
type RunLogger struct {
	Dir     string
	RunID   string
	LogPath string
	file    *os.File
}

// NewRunLogger creates a per-project log directory and a fresh JSONL file.
func NewRunLogger(baseDir, workDir string) (*RunLogger, error) {
	logDir, err := FindLogDir(baseDir, workDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	runID := newRunID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s.jsonl", runID))
	file, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	return &RunLogger{
		Dir:     logDir,
		RunID:   runID,
		LogPath: logPath,
		file:    file,
	}, nil
}

// Writer returns the underlying log file writer.
func (r *RunLogger) Writer() *os.File {
	return r.file
}

// Close closes the log file.
func (r *RunLogger) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// FindLogDir returns the per-project log directory for a work directory.
func FindLogDir(baseDir, workDir string) (string, error) {
	if baseDir == "" {
		return "", fmt.Errorf("log base dir is empty")
	}

	resolved := workDir
	if resolved == "" {
		resolved = "."
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}

	if !filepath.IsAbs(baseDir) {
		baseDir = filepath.Join(resolved, baseDir)
	}
	return filepath.Join(filepath.Clean(baseDir), projectSlug(resolved)), nil
}

// projectSlug derives a stable directory name from the project path so
// runs from different checkouts never collide.
func projectSlug(projectRoot string) string {
	name := slugify(filepath.Base(projectRoot))
	sum := sha1.Sum([]byte(projectRoot))
	return fmt.Sprintf("%s-%s", name, hex.EncodeToString(sum[:])[:8])
}

func slugify(input string) string {
	var b strings.Builder
	for i := 0; i < len(input); i++ {
		c := input[i]
		valid := (c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '.' || c == '_' || c == '-'
		if valid {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		return "project"
	}
	return slug
}

func newRunID() string {
	return fmt.Sprintf("%s-%s",
		time.Now().UTC().Format("20060102-150405"),
		uuid.NewString()[:8])
}

// Run describes one past dispatch run's log file.
type Run struct {
	RunID   string
	Path    string
	ModTime time.Time
}

// FindRuns lists all run logs in a directory, newest first.
func FindRuns(logDir string) ([]Run, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log dir: %w", err)
	}

	var runs []Run
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		runs = append(runs, Run{
			RunID:   strings.TrimSuffix(entry.Name(), ".jsonl"),
			Path:    filepath.Join(logDir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].ModTime.After(runs[j].ModTime)
	})
	return runs, nil
}

// FindLatestLog finds the most recent JSONL log file in a directory.
// It returns an empty path when the directory holds no runs.
func FindLatestLog(logDir string) (string, error) {
	runs, err := FindRuns(logDir)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", nil
	}
	return runs[0].Path, nil
}

// TailLog writes the last lastN lines of a log file to w (0 means all),
// optionally following new data as it arrives.
func TailLog(w io.Writer, path string, lastN int, follow bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if lastN > 0 {
		data, err := io.ReadAll(file)
		if err != nil {
			return err
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		if len(lines) > lastN {
			lines = lines[len(lines)-lastN:]
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	} else if _, err := io.Copy(w, file); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	for {
		time.Sleep(200 * time.Millisecond)
		if _, err := io.Copy(w, file); err != nil {
			return err
		}
	}
}
