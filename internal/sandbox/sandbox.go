// Package sandbox executes model-written Python analysis code in a
// subprocess. The code runs under a fixed bootstrap that loads the dataset
// into df and provides a minimal st shim, so the snippets the analysis
// prompt asks for run unchanged.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ErrTimeout is returned when the snippet exceeds the execution deadline.
var ErrTimeout = errors.New("execution timed out")

// bootstrap is prepended to every snippet. It binds exactly two names:
// df (the dataset) and st (a shim that prints instead of rendering).
// Plotly figures are serialized to JSON so the caller can render them.
const bootstrap = `import sys, json
import pandas as pd

df = pd.read_csv(sys.argv[1])

class _Shim:
    def write(self, *args, **kwargs):
        for a in args:
            print(a)
    def dataframe(self, data=None, **kwargs):
        if data is not None:
            print(data)
    def table(self, data=None, **kwargs):
        if data is not None:
            print(data)
    def plotly_chart(self, fig, **kwargs):
        print("__LMDESK_FIGURE__")
        print(fig.to_json())
    def metric(self, label, value, **kwargs):
        print(f"{label}: {value}")
    def error(self, *args, **kwargs):
        for a in args:
            print(a, file=sys.stderr)

st = _Shim()

exec(compile(open(sys.argv[2]).read(), "snippet", "exec"), {"df": df, "st": st})
`

// FigureMarker precedes a serialized Plotly figure on stdout.
const FigureMarker = "__LMDESK_FIGURE__"

// Result holds the outcome of one execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Executor runs Python snippets against a dataset file.
type Executor struct {
	interpreter string
	timeout     time.Duration
	logger      *slog.Logger
}

// Config holds executor settings.
type Config struct {
	Interpreter string        // Defaults to python3
	Timeout     time.Duration // Hard deadline per snippet; defaults to 30s
}

// NewExecutor creates a snippet executor.
func NewExecutor(cfg Config, logger *slog.Logger) *Executor {
	if cfg.Interpreter == "" {
		cfg.Interpreter = "python3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		interpreter: cfg.Interpreter,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Run executes a snippet against the dataset at datasetPath. The snippet and
// bootstrap are written to a temp dir that is removed afterwards. A non-zero
// exit is reported in the Result, not as an error; errors mean the snippet
// could not be run at all.
func (e *Executor) Run(ctx context.Context, code string, datasetPath string) (*Result, error) {
	if code == "" {
		return nil, fmt.Errorf("no code to execute")
	}
	if _, err := os.Stat(datasetPath); err != nil {
		return nil, fmt.Errorf("dataset not readable: %w", err)
	}

	workDir, err := os.MkdirTemp("", "lmdesk-exec-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	bootstrapPath := filepath.Join(workDir, "bootstrap.py")
	if err := os.WriteFile(bootstrapPath, []byte(bootstrap), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write bootstrap: %w", err)
	}
	snippetPath := filepath.Join(workDir, "snippet.py")
	if err := os.WriteFile(snippetPath, []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write snippet: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.interpreter, bootstrapPath, datasetPath, snippetPath)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if ctx.Err() == context.DeadlineExceeded {
		e.logger.Warn("snippet execution timed out", "timeout", e.timeout)
		return result, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if runErr != nil {
		return nil, fmt.Errorf("failed to run %s: %w", e.interpreter, runErr)
	}

	return result, nil
}
