package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewRunLogger(t *testing.T) {
	base := t.TempDir()
	work := t.TempDir()

	rl, err := NewRunLogger(base, work)
	if err != nil {
		t.Fatalf("NewRunLogger() error = %v", err)
	}
	defer rl.Close()

	if !strings.HasPrefix(rl.Dir, base) {
		t.Errorf("log dir %q not under base %q", rl.Dir, base)
	}
	if !strings.HasSuffix(rl.LogPath, ".jsonl") {
		t.Errorf("log path %q should end in .jsonl", rl.LogPath)
	}

	if _, err := rl.Writer().WriteString(`{"type":"launch"}` + "\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(rl.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"type":"launch"`) {
		t.Errorf("log content = %q", data)
	}
}

func TestFindLogDir_StablePerProject(t *testing.T) {
	base := t.TempDir()
	work := t.TempDir()

	a, err := FindLogDir(base, work)
	if err != nil {
		t.Fatalf("FindLogDir() error = %v", err)
	}
	b, err := FindLogDir(base, work)
	if err != nil {
		t.Fatalf("FindLogDir() error = %v", err)
	}
	if a != b {
		t.Errorf("log dir not stable: %q vs %q", a, b)
	}

	other, err := FindLogDir(base, t.TempDir())
	if err != nil {
		t.Fatalf("FindLogDir() error = %v", err)
	}
	if other == a {
		t.Errorf("different projects mapped to same log dir %q", a)
	}
}

func TestFindRuns(t *testing.T) {
	dir := t.TempDir()

	if runs, err := FindRuns(dir); err != nil || len(runs) != 0 {
		t.Fatalf("FindRuns(empty) = %v, %v", runs, err)
	}

	old := filepath.Join(dir, "20250101-000000-aaaaaaaa.jsonl")
	recent := filepath.Join(dir, "20250601-000000-bbbbbbbb.jsonl")
	for _, p := range []string{old, recent} {
		if err := os.WriteFile(p, []byte("{}\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	runs, err := FindRuns(dir)
	if err != nil {
		t.Fatalf("FindRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("FindRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].RunID != "20250601-000000-bbbbbbbb" {
		t.Errorf("newest run = %q", runs[0].RunID)
	}

	latest, err := FindLatestLog(dir)
	if err != nil {
		t.Fatalf("FindLatestLog() error = %v", err)
	}
	if latest != recent {
		t.Errorf("FindLatestLog() = %q, want %q", latest, recent)
	}
}

func TestFindLatestLog_MissingDir(t *testing.T) {
	latest, err := FindLatestLog(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("FindLatestLog() error = %v", err)
	}
	if latest != "" {
		t.Errorf("FindLatestLog() = %q, want empty", latest)
	}
}

func TestTailLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	if err := os.WriteFile(path, []byte("line one\nline two\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := TailLog(&buf, path, 0, false); err != nil {
		t.Fatalf("TailLog() error = %v", err)
	}
	if buf.String() != "line one\nline two\n" {
		t.Errorf("TailLog() output = %q", buf.String())
	}

	buf.Reset()
	if err := TailLog(&buf, path, 1, false); err != nil {
		t.Fatalf("TailLog(n=1) error = %v", err)
	}
	if buf.String() != "line two\n" {
		t.Errorf("TailLog(n=1) output = %q", buf.String())
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := NewLogger(level); err != nil {
			t.Errorf("NewLogger(%q) error = %v", level, err)
		}
	}
	if _, err := NewLogger("loud"); err == nil {
		t.Error("NewLogger(\"loud\") should fail")
	}
}
