package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"dandiprep/internal/services"
)

// Stream identifies which output pipe a line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// waitDelay bounds how long Wait blocks on pipes held open by grandchildren
// after the process itself has been killed.
const waitDelay = 5 * time.Second

// Request describes one external invocation.
type Request struct {
	Binary  string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
	// OnLine receives each output line as it is produced.
	OnLine func(stream Stream, line string)
}

// Result captures the outcome of an invocation.
type Result struct {
	Binary   string
	Args     []string
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// CommandLine renders the invocation for logs and error messages.
func (r Result) CommandLine() string {
	parts := append([]string{r.Binary}, r.Args...)
	return strings.Join(parts, " ")
}

// Diagnostic returns the last lines of stderr, falling back to stdout.
func (r Result) Diagnostic(maxLines int) string {
	text := strings.TrimSpace(r.Stderr)
	if text == "" {
		text = strings.TrimSpace(r.Stdout)
	}
	if text == "" || maxLines <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}

// ExitError reports a process that ran to completion with a non-zero status.
type ExitError struct {
	Result Result
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Result.Binary, e.Result.ExitCode)
	if diag := e.Result.Diagnostic(5); diag != "" {
		msg += ": " + diag
	}
	return msg
}

// Unwrap tags exit failures as external tool errors.
func (e *ExitError) Unwrap() error {
	return services.ErrExternalTool
}

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// ExecRunner runs requests as real child processes.
type ExecRunner struct{}

// Run executes the request and blocks until the process exits or the timeout
// elapses. The Result is populated even when an error is returned.
func (ExecRunner) Run(ctx context.Context, req Request) (Result, error) {
	result := Result{Binary: req.Binary, Args: append([]string(nil), req.Args...), Dir: req.Dir, ExitCode: -1}
	if strings.TrimSpace(req.Binary) == "" {
		return result, services.Wrap(services.ErrConfiguration, "", "run command", "binary required", nil)
	}

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, req.Binary, req.Args...) //nolint:gosec
	cmd.Dir = req.Dir
	if len(req.Env) > 0 {
		cmd.Env = append(os.Environ(), req.Env...)
	}
	cmd.WaitDelay = waitDelay

	stdout := &lineWriter{stream: Stdout, onLine: req.OnLine}
	stderr := &lineWriter{stream: Stderr, onLine: req.OnLine}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "", "start "+req.Binary, "", err)
	}

	waitErr := cmd.Wait()
	result.Duration = time.Since(start)
	stdout.flush()
	stderr.flush()
	result.Stdout = stdout.buf.String()
	result.Stderr = stderr.buf.String()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && ctx.Err() == nil {
			return result, services.Wrap(services.ErrTimeout, "", req.Binary, fmt.Sprintf("no exit after %s", req.Timeout), ctxErr)
		}
		return result, ctxErr
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return result, &ExitError{Result: result}
		}
		return result, services.Wrap(services.ErrExternalTool, "", "wait "+req.Binary, "", waitErr)
	}
	return result, nil
}

// lineWriter captures a stream and forwards complete lines to onLine.
// exec copies each pipe on its own goroutine, so a writer is never shared.
type lineWriter struct {
	stream  Stream
	onLine  func(Stream, string)
	buf     bytes.Buffer
	pending []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	if w.onLine == nil {
		return len(p), nil
	}
	w.pending = append(w.pending, p...)
	for {
		idx := bytes.IndexByte(w.pending, '\n')
		if idx < 0 {
			break
		}
		w.onLine(w.stream, strings.TrimRight(string(w.pending[:idx]), "\r"))
		w.pending = w.pending[idx+1:]
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	if w.onLine != nil && len(w.pending) > 0 {
		w.onLine(w.stream, string(w.pending))
	}
	w.pending = nil
}
