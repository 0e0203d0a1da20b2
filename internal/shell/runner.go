package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Command describes one external command invocation.
type Command struct {
	Name string
	Args []string
	Dir  string   // working directory; empty means the current one
	Env  []string // extra KEY=VALUE pairs appended to the process environment

	// Check turns a nonzero exit or a spawn failure into a *CommandError.
	Check bool
}

// String renders the command line, quoting arguments that contain spaces.
func (c Command) String() string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Name)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\n\"") {
			a = strconv.Quote(a)
		}
		argv = append(argv, a)
	}
	return strings.Join(argv, " ")
}

// Result captures how a command finished.
type Result struct {
	Code   int    // exit code; -1 when the process did not start or was killed by a signal
	Signal string // terminating signal name, if any
	Stdout string // captured output (Exec only)
	Stderr string // captured errors (Exec only)
	Err    error  // spawn or wait failure other than a nonzero exit
	PID    int
}

// Success reports whether the command started and exited with code 0.
func (r *Result) Success() bool {
	return r.Err == nil && r.Code == 0 && r.Signal == ""
}

// CommandError is returned for checked commands that did not succeed.
type CommandError struct {
	Command Command
	Result  *Result
}

func (e *CommandError) Error() string {
	switch {
	case e.Result.Err != nil:
		return fmt.Sprintf("%s: %v", e.Command.Name, e.Result.Err)
	case e.Result.Signal != "":
		return fmt.Sprintf("%s killed by signal %s", e.Command.Name, e.Result.Signal)
	default:
		msg := fmt.Sprintf("%s exited with code %d", e.Command.Name, e.Result.Code)
		if stderr := strings.TrimSpace(e.Result.Stderr); stderr != "" {
			msg += "\n" + stderr
		}
		return msg
	}
}

func (e *CommandError) Unwrap() error { return e.Result.Err }

// Runner executes commands.
type Runner struct {
	// Stdout and Stderr receive streamed output from Spawn. Both default to
	// os.Stderr so command output never mixes with the CLI's own stdout.
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// NewRunner returns a Runner that streams to os.Stderr.
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{Logger: logger}
}

// Spawn runs the command with its output streamed to the runner's writers.
func (r *Runner) Spawn(ctx context.Context, c Command) (*Result, error) {
	stdout, stderr := r.Stdout, r.Stderr
	if stdout == nil {
		stdout = os.Stderr
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return r.run(ctx, c, stdout, stderr, nil, nil)
}

// Exec runs the command and captures its output in the Result.
func (r *Runner) Exec(ctx context.Context, c Command) (*Result, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	return r.run(ctx, c, &stdoutBuf, &stderrBuf, &stdoutBuf, &stderrBuf)
}

func (r *Runner) run(ctx context.Context, c Command, stdout, stderr io.Writer, outBuf, errBuf *bytes.Buffer) (*Result, error) {
	log := r.logger().With(zap.String("command", c.String()))

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	result := &Result{}
	start := time.Now()

	if err := cmd.Start(); err != nil {
		result.Code = -1
		result.Err = err
		log.Debug("command failed to start", zap.Error(err))
		return r.finish(c, result)
	}

	result.PID = cmd.Process.Pid
	log.Debug("started command", zap.Int("pid", result.PID), zap.String("dir", c.Dir))

	waitErr := cmd.Wait()
	if outBuf != nil {
		result.Stdout = outBuf.String()
	}
	if errBuf != nil {
		result.Stderr = errBuf.String()
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		result.Code = 0
	case errors.As(waitErr, &exitErr):
		result.Code = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			result.Signal = ws.Signal().String()
		}
		if ctx.Err() != nil {
			result.Err = ctx.Err()
		}
	default:
		result.Code = -1
		result.Err = waitErr
	}

	log.Debug("finished command",
		zap.Int("pid", result.PID),
		zap.Int("exit_code", result.Code),
		zap.String("signal", result.Signal),
		zap.Duration("elapsed", time.Since(start)))

	return r.finish(c, result)
}

func (r *Runner) finish(c Command, result *Result) (*Result, error) {
	if c.Check && !result.Success() {
		return result, &CommandError{Command: c, Result: result}
	}
	return result, nil
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
