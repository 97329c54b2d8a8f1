// Package toolchain locates the Python interpreter and drives pip.
package toolchain

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/specter-ci/specter/internal/runner"
)

// ErrInterpreterNotFound indicates no Python interpreter is on PATH.
var ErrInterpreterNotFound = errors.New("python interpreter not found")

// ErrPipNotFound indicates the interpreter exists but pip is not invocable.
var ErrPipNotFound = errors.New("pip not available")

// Python wraps a located interpreter and runs pip through it, always as
// "python -m pip" so the pip matches the interpreter.
type Python struct {
	Exe string

	run      runner.Runner
	lookPath func(string) (string, error)
}

// Option customizes interpreter location, used by tests to stub out PATH
// lookup and process execution.
type Option func(*Python)

func WithRunner(r runner.Runner) Option {
	return func(p *Python) { p.run = r }
}

func WithLookPath(fn func(string) (string, error)) Option {
	return func(p *Python) { p.lookPath = fn }
}

// Locate tries the candidate interpreter names in order and verifies pip is
// invocable through the first one found. Both failures carry a descriptive
// message naming what was searched.
func Locate(candidates []string, opts ...Option) (*Python, error) {
	p := &Python{
		run:      runner.ExecRunner{},
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, name := range candidates {
		path, err := p.lookPath(name)
		if err == nil {
			p.Exe = path
			break
		}
	}
	if p.Exe == "" {
		return nil, fmt.Errorf("%w: tried %s", ErrInterpreterNotFound, strings.Join(candidates, ", "))
	}

	result, err := p.pip("--version")
	if err != nil || result.ExitCode != 0 {
		return nil, fmt.Errorf("%w: %s -m pip --version failed", ErrPipNotFound, p.Exe)
	}

	return p, nil
}

// UpgradePip upgrades pip itself before any installs.
func (p *Python) UpgradePip() (*runner.Result, error) {
	return p.pip("install", "--upgrade", "pip")
}

// InstallDependencies installs from the manifest when it exists in the current
// working directory, otherwise installs the fallback package list. The
// returned bool reports whether the manifest was used.
func (p *Python) InstallDependencies(manifest string, fallback []string) (*runner.Result, bool, error) {
	if _, err := os.Stat(manifest); err == nil {
		result, err := p.pip("install", "-r", manifest)
		return result, true, err
	}

	args := append([]string{"install"}, fallback...)
	result, err := p.pip(args...)
	return result, false, err
}

// RunScript invokes a Python script in the current working directory.
func (p *Python) RunScript(script string, args ...string) (*runner.Result, error) {
	return p.run.Run(&runner.Config{
		Command: p.Exe,
		Args:    append([]string{script}, args...),
	})
}

func (p *Python) pip(args ...string) (*runner.Result, error) {
	return p.run.Run(&runner.Config{
		Command: p.Exe,
		Args:    append([]string{"-m", "pip"}, args...),
	})
}
