// Package process runs a local command whenever a sequence is matched.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/pkg/domain"
)

// EnvPrefix prefixes every variable describing the match.
const EnvPrefix = "KEYSEQ_"

// Match describes the match a command is run for.
type Match struct {
	Sequence string
	Keys     domain.Sequence
	Count    int
	At       time.Time
}

// Result is the outcome of one execution.
type Result struct {
	Output   string
	ExitCode int
	Duration time.Duration
}

// Runner executes a fixed command. Match data is passed through environment
// variables, never as arguments, so keys cannot inject flags.
type Runner struct {
	command string
	args    []string
	baseDir string
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout bounds each execution. Zero means no limit.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithLogger sets the logger used by Go.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a runner for command and its fixed args.
func NewRunner(command string, args []string, opts ...RunnerOption) (*Runner, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("process: command cannot be empty")
	}
	r := &Runner{
		command: command,
		args:    append([]string(nil), args...),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes the command and waits for it. A non-zero exit is reported
// both in Result.ExitCode and as an error carrying stderr.
func (r *Runner) Run(ctx context.Context, m Match) (Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.command, r.args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), Environ(m)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Output:   strings.TrimSpace(stdout.String()),
		Duration: time.Since(start),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return result, nil
}

// Go runs the command in the background and logs the outcome. It never
// blocks, so it is safe to call from a Listener callback.
func (r *Runner) Go(ctx context.Context, m Match) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		res, err := r.Run(ctx, m)
		if err != nil {
			r.logger.Error("Match command failed", "command", r.command, "exit", res.ExitCode, "err", err)
			return
		}
		r.logger.Info("Match command finished", "command", r.command, "duration", res.Duration, "output", res.Output)
	}()
}

// Wait blocks until every command started by Go has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Environ renders m as KEY=value pairs.
func Environ(m Match) []string {
	at := m.At
	if at.IsZero() {
		at = time.Now()
	}
	return []string{
		EnvPrefix + "SEQUENCE=" + m.Sequence,
		EnvPrefix + "KEYS=" + m.Keys.String(),
		EnvPrefix + "MATCH_COUNT=" + strconv.Itoa(m.Count),
		EnvPrefix + "MATCHED_AT=" + at.UTC().Format(time.RFC3339Nano),
	}
}
