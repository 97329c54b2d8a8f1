package runner

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Config describes one external process invocation. Stdout and Stderr default
// to the orchestrator's own streams so the CI log captures the child's output
// inline.
type Config struct {
	Command string
	Args    []string
	Dir     string   // working directory; empty means inherit
	Env     []string // extra KEY=VALUE entries appended to the environment
	Stdout  io.Writer
	Stderr  io.Writer
}

// Result reports how an invocation finished. A non-zero ExitCode is not an
// error here; callers decide whether to propagate it.
type Result struct {
	Command       string
	ExitCode      int
	ExecutionTime int64 // milliseconds
}

// Runner abstracts process execution so orchestration logic can be tested
// without spawning real processes.
type Runner interface {
	Run(config *Config) (*Result, error)
}

// ExecRunner executes commands via os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(config *Config) (*Result, error) {
	return Execute(config)
}

// Execute runs the command to completion, blocking until it exits. An error is
// returned only when the process could not be started; a started process that
// exits non-zero yields a Result carrying its exit code.
func Execute(config *Config) (*Result, error) {
	cmd := exec.Command(config.Command, config.Args...)
	cmd.Dir = config.Dir
	if len(config.Env) > 0 {
		cmd.Env = append(os.Environ(), config.Env...)
	}

	cmd.Stdout = config.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = config.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	full := fullCommand(config)
	slog.Debug("executing command", "command", full, "dir", config.Dir)

	startTime := time.Now()
	err := cmd.Run()
	executionTime := time.Since(startTime).Milliseconds()

	exitCode := 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				exitCode = status.ExitStatus()
			} else {
				exitCode = 1
			}
		} else {
			return nil, fmt.Errorf("failed to start %s: %w", config.Command, err)
		}
	}

	slog.Debug("command finished", "command", full, "exit_code", exitCode, "duration_ms", executionTime)

	return &Result{
		Command:       full,
		ExitCode:      exitCode,
		ExecutionTime: executionTime,
	}, nil
}

func fullCommand(config *Config) string {
	if len(config.Args) == 0 {
		return config.Command
	}
	return config.Command + " " + strings.Join(config.Args, " ")
}
