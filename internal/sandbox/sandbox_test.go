package sandbox

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	return path
}

// fakeInterpreter writes a shell script used in place of python3 so the
// process plumbing can be tested without a Python toolchain.
func fakeInterpreter(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakepy")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("failed to write fake interpreter: %v", err)
	}
	return path
}

func TestExecutor_Run_CapturesOutput(t *testing.T) {
	interp := fakeInterpreter(t, `echo "42"; echo "warn" >&2`)
	e := NewExecutor(Config{Interpreter: interp}, nil)

	result, err := e.Run(context.Background(), "df.head()", writeDataset(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Stdout != "42\n" {
		t.Errorf("unexpected stdout: %q", result.Stdout)
	}
	if result.Stderr != "warn\n" {
		t.Errorf("unexpected stderr: %q", result.Stderr)
	}
	if result.ExitCode != 0 {
		t.Errorf("unexpected exit code: %d", result.ExitCode)
	}
}

func TestExecutor_Run_NonZeroExit(t *testing.T) {
	interp := fakeInterpreter(t, `echo "Traceback" >&2; exit 1`)
	e := NewExecutor(Config{Interpreter: interp}, nil)

	result, err := e.Run(context.Background(), "broken", writeDataset(t))
	if err != nil {
		t.Fatalf("non-zero exit should not be an error: %v", err)
	}
	if result.ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", result.ExitCode)
	}
	if result.Stderr == "" {
		t.Error("stderr should be captured")
	}
}

func TestExecutor_Run_Timeout(t *testing.T) {
	interp := fakeInterpreter(t, `sleep 5`)
	e := NewExecutor(Config{Interpreter: interp, Timeout: 100 * time.Millisecond}, nil)

	_, err := e.Run(context.Background(), "while True: pass", writeDataset(t))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExecutor_Run_EmptyCode(t *testing.T) {
	e := NewExecutor(Config{}, nil)
	if _, err := e.Run(context.Background(), "", writeDataset(t)); err == nil {
		t.Error("expected error for empty code")
	}
}

func TestExecutor_Run_MissingDataset(t *testing.T) {
	e := NewExecutor(Config{}, nil)
	if _, err := e.Run(context.Background(), "df.head()", "/nonexistent/data.csv"); err == nil {
		t.Error("expected error for missing dataset")
	}
}

func TestExecutor_Run_ReceivesPaths(t *testing.T) {
	// The interpreter gets bootstrap, dataset, snippet in that order.
	interp := fakeInterpreter(t, `cat "$3"`)
	e := NewExecutor(Config{Interpreter: interp}, nil)

	result, err := e.Run(context.Background(), "st.write('hi')", writeDataset(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Stdout != "st.write('hi')" {
		t.Errorf("snippet not passed through: %q", result.Stdout)
	}
}

func TestExecutor_Run_Python(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}
	probe := exec.Command("python3", "-c", "import pandas")
	if err := probe.Run(); err != nil {
		t.Skip("pandas not installed")
	}

	e := NewExecutor(Config{}, nil)
	result, err := e.Run(context.Background(), "st.write(int(df['a'].sum()))", writeDataset(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("snippet failed: %s", result.Stderr)
	}
	if result.Stdout != "1\n" {
		t.Errorf("unexpected stdout: %q", result.Stdout)
	}
}
