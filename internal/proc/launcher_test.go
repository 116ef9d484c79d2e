package proc

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ovn-lab/fanout/internal/dispatch"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use sh")
	}
}

func TestLaunch_ExitCodes(t *testing.T) {
	skipOnWindows(t)
	launcher := New()

	t.Run("zero exit", func(t *testing.T) {
		h, err := launcher.Launch(context.Background(), dispatch.Task{
			ID:      "ok",
			Command: "true",
		})
		if err != nil {
			t.Fatalf("Launch failed: %v", err)
		}
		code, waitErr := h.Wait()
		if waitErr != nil {
			t.Errorf("expected no error, got %v", waitErr)
		}
		if code != 0 {
			t.Errorf("expected exit code 0, got %d", code)
		}
		if h.Running() {
			t.Error("expected Running to be false after Wait")
		}
	})

	t.Run("nonzero exit", func(t *testing.T) {
		h, err := launcher.Launch(context.Background(), dispatch.Task{
			ID:      "fail",
			Command: "sh",
			Args:    []string{"-c", "exit 3"},
		})
		if err != nil {
			t.Fatalf("Launch failed: %v", err)
		}
		code, waitErr := h.Wait()
		if waitErr == nil {
			t.Error("expected an error for nonzero exit")
		}
		if code != 3 {
			t.Errorf("expected exit code 3, got %d", code)
		}
	})

	t.Run("missing binary", func(t *testing.T) {
		_, err := launcher.Launch(context.Background(), dispatch.Task{
			ID:      "missing",
			Command: "definitely-not-a-real-command-xyz",
		})
		if err == nil {
			t.Fatal("expected launch error for missing binary")
		}
	})
}

func TestLaunch_OutputAppend(t *testing.T) {
	skipOnWindows(t)
	launcher := New()
	outPath := filepath.Join(t.TempDir(), "out.log")

	for i := 0; i < 2; i++ {
		h, err := launcher.Launch(context.Background(), dispatch.Task{
			ID:         "echo",
			Command:    "sh",
			Args:       []string{"-c", "echo line"},
			OutputPath: outPath,
		})
		if err != nil {
			t.Fatalf("Launch failed: %v", err)
		}
		if _, err := h.Wait(); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got := strings.Count(string(data), "line"); got != 2 {
		t.Errorf("expected 2 appended lines, got %d:\n%s", got, data)
	}
}

func TestLaunch_StdinFeed(t *testing.T) {
	skipOnWindows(t)
	launcher := New()
	outPath := filepath.Join(t.TempDir(), "out.log")

	h, err := launcher.Launch(context.Background(), dispatch.Task{
		ID:         "cat",
		Command:    "cat",
		Stdin:      []string{"y", "y"},
		OutputPath: outPath,
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if _, err := h.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "y\ny\n" {
		t.Errorf("expected fed stdin to round-trip, got %q", data)
	}
}

func TestLaunch_Kill(t *testing.T) {
	skipOnWindows(t)
	launcher := New()

	h, err := launcher.Launch(context.Background(), dispatch.Task{
		ID:      "sleeper",
		Command: "sleep",
		Args:    []string{"30"},
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if !h.Running() {
		t.Fatal("expected process to be running")
	}
	if err := h.Kill(); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}
	code, waitErr := h.Wait()
	if waitErr == nil {
		t.Error("expected an error after kill")
	}
	if code != -1 {
		t.Errorf("expected exit code -1 after kill, got %d", code)
	}
}

// The scenarios below run the dispatcher against real processes.

func TestDispatcher_MixedExits(t *testing.T) {
	skipOnWindows(t)

	tasks := []dispatch.Task{
		{ID: "a", Index: 0, Command: "true"},
		{ID: "b", Index: 1, Command: "sh", Args: []string{"-c", "sleep 0.3"}},
		{ID: "c", Index: 2, Command: "sh", Args: []string{"-c", "exit 1"}},
	}

	d := dispatch.New(New())
	start := time.Now()
	results, err := d.Dispatch(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
		t.Errorf("expected dispatch to block on the slowest task, returned after %v", elapsed)
	}

	wantKinds := []dispatch.Kind{dispatch.KindOK, dispatch.KindOK, dispatch.KindExitError}
	for i, want := range wantKinds {
		if results[i].Kind != want {
			t.Errorf("result %d: expected %s, got %s", i, want, results[i].Kind)
		}
	}
	if results[2].ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", results[2].ExitCode)
	}
}

func TestDispatcher_CancelKillsSleepers(t *testing.T) {
	skipOnWindows(t)

	tasks := []dispatch.Task{
		{ID: "s1", Index: 0, Command: "sleep", Args: []string{"10"}},
		{ID: "s2", Index: 1, Command: "sleep", Args: []string{"10"}},
		{ID: "s3", Index: 2, Command: "sleep", Args: []string{"10"}},
	}

	d := dispatch.New(New())
	go func() {
		time.Sleep(100 * time.Millisecond)
		d.Cancel()
	}()

	start := time.Now()
	results, err := d.Dispatch(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("expected dispatch to return promptly after cancel, took %v", elapsed)
	}

	for i, r := range results {
		if r.Kind != dispatch.KindCancelled {
			t.Errorf("result %d: expected cancelled, got %s", i, r.Kind)
		}
	}
}

func TestDispatcher_LaunchErrorIsolated(t *testing.T) {
	skipOnWindows(t)

	tasks := []dispatch.Task{
		{ID: "good", Index: 0, Command: "true"},
		{ID: "bad", Index: 1, Command: "definitely-not-a-real-command-xyz"},
	}

	d := dispatch.New(New())
	results, err := d.Dispatch(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if results[0].Kind != dispatch.KindOK {
		t.Errorf("expected sibling to complete, got %s", results[0].Kind)
	}
	if results[1].Kind != dispatch.KindLaunchError {
		t.Errorf("expected launch-error, got %s", results[1].Kind)
	}
}
