// Package pipeline runs the evaluation sequence: CI gate, directory
// resolution, toolchain check, dependency install, test-data generation,
// evaluation, result reporting. Steps run strictly in order; a fatal step
// stops the run, except that a finished evaluation always reports its results
// before its exit code is propagated.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/specter-ci/specter/internal/cienv"
	"github.com/specter-ci/specter/internal/config"
	"github.com/specter-ci/specter/internal/console"
	"github.com/specter-ci/specter/internal/results"
	"github.com/specter-ci/specter/internal/runner"
	"github.com/specter-ci/specter/internal/toolchain"
)

// errSkipStep marks a step that is skipped with a warning instead of
// failing the run.
var errSkipStep = errors.New("step skipped")

// Config selects what to run and lets tests substitute process execution.
type Config struct {
	TestType TestType
	Areas    []string
	WorkDir  string

	Log      *console.Logger
	Runner   runner.Runner
	LookPath func(string) (string, error)
}

type Pipeline struct {
	cfg *Config
	log *console.Logger
	run runner.Runner

	settings   config.Settings
	python     *toolchain.Python
	workDirAbs string
	chdirDone  bool
	summary    *Summary
}

func New(cfg *Config) *Pipeline {
	p := &Pipeline{cfg: cfg, log: cfg.Log, run: cfg.Runner}
	if p.log == nil {
		p.log = console.New()
	}
	if p.run == nil {
		p.run = runner.ExecRunner{}
	}
	if p.cfg.LookPath == nil {
		p.cfg.LookPath = exec.LookPath
	}
	return p
}

// Run executes the whole sequence and returns the run summary. It never
// returns an error: every failure mode is folded into the summary's exit
// code. The original working directory is restored on every path.
func (p *Pipeline) Run() *Summary {
	s := &Summary{TestType: string(p.cfg.TestType), Areas: p.cfg.Areas}
	p.summary = s

	start := time.Now()
	defer func() { s.DurationMs = time.Since(start).Milliseconds() }()
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("unexpected failure: %v", r)
			s.ExitCode = 1
		}
	}()

	if !cienv.InCI() {
		p.log.Warningf("%s is not set to the expected CI value; skipping evaluation run", cienv.FlagVar)
		s.Gated = true
		return s
	}

	origDir, err := os.Getwd()
	if err != nil {
		p.log.Errorf("cannot determine current directory: %v", err)
		s.ExitCode = 1
		return s
	}
	defer func() {
		if p.chdirDone {
			_ = os.Chdir(origDir)
		}
	}()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"resolve directory", p.resolveDir},
		{"toolchain check", p.checkToolchain},
		{"install dependencies", p.installDependencies},
		{"generate test data", p.generateTestData},
	}

	for _, step := range steps {
		err := step.fn()
		switch {
		case err == nil:
			p.record(step.name, StepOK, "", 0)
		case errors.Is(err, errSkipStep):
			p.log.Warningf("%v", err)
			fmt.Fprintln(p.log.Out, cienv.IssueDirective("warning", err.Error()))
			p.record(step.name, StepSkipped, err.Error(), 0)
		default:
			p.log.Errorf("%s failed: %v", step.name, err)
			code := 1
			var exitErr *ExitCodeError
			if errors.As(err, &exitErr) {
				code = exitErr.Code
			}
			p.record(step.name, StepFailed, err.Error(), code)
			s.ExitCode = code
			return s
		}
	}

	code, err := p.runEvaluation()
	if err != nil {
		p.log.Errorf("run evaluation failed: %v", err)
		p.record("run evaluation", StepFailed, err.Error(), 1)
		s.ExitCode = 1
		return s
	}
	s.ExitCode = code
	if code == 0 {
		p.record("run evaluation", StepOK, "", 0)
		p.log.Successf("evaluation completed")
	} else {
		p.record("run evaluation", StepFailed, "", code)
		p.log.Errorf("evaluation exited with code %d", code)
	}

	// Results are surfaced even for a failing evaluation; the exit code
	// above is already final and reporting never changes it.
	p.report(s)

	return s
}

func (p *Pipeline) record(name string, status StepStatus, detail string, exitCode int) {
	p.summary.Steps = append(p.summary.Steps, StepSummary{
		Name:     name,
		Status:   status,
		Detail:   detail,
		ExitCode: exitCode,
	})
}

func (p *Pipeline) resolveDir() error {
	info, err := os.Stat(p.cfg.WorkDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("evaluation directory %s does not exist", p.cfg.WorkDir)
	}

	abs, err := filepath.Abs(p.cfg.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", p.cfg.WorkDir, err)
	}
	if err := os.Chdir(abs); err != nil {
		return fmt.Errorf("failed to enter %s: %w", abs, err)
	}
	p.chdirDone = true
	p.workDirAbs = abs
	p.summary.WorkDir = abs
	p.log.Infof("evaluation directory: %s", abs)

	settings, err := config.Load(".")
	if err != nil {
		return err
	}
	p.settings = settings

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			p.log.Warningf("failed to load .env: %v", err)
		}
	}

	return nil
}

func (p *Pipeline) checkToolchain() error {
	python, err := toolchain.Locate(p.settings.Interpreters,
		toolchain.WithRunner(p.run),
		toolchain.WithLookPath(p.cfg.LookPath))
	if err != nil {
		return err
	}
	p.python = python
	p.log.Infof("using interpreter: %s", python.Exe)
	return nil
}

func (p *Pipeline) installDependencies() error {
	result, err := p.python.UpgradePip()
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return &ExitCodeError{Code: result.ExitCode, Step: "pip upgrade"}
	}

	result, usedManifest, err := p.python.InstallDependencies(p.settings.Manifest, p.settings.FallbackPackages)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return &ExitCodeError{Code: result.ExitCode, Step: "dependency installation"}
	}

	if usedManifest {
		p.log.Infof("installed dependencies from %s", p.settings.Manifest)
	} else {
		p.log.Infof("no %s found; installed fallback packages", p.settings.Manifest)
	}
	return nil
}

func (p *Pipeline) generateTestData() error {
	script := p.settings.GeneratorScript
	if _, err := os.Stat(script); err != nil {
		return fmt.Errorf("%w: generator script %s not found in %s", errSkipStep, script, p.workDirAbs)
	}

	// The generator's CLI accepts only the area filter.
	var args []string
	if filter := AreaFilter(p.cfg.Areas); filter != "" {
		args = append(args, p.settings.AreasFlag, filter)
	}

	result, err := p.python.RunScript(script, args...)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return &ExitCodeError{Code: result.ExitCode, Step: "test data generation"}
	}
	return nil
}

// runEvaluation returns the evaluation's exit code. An error means the script
// could not run at all, which is fatal; a non-zero exit code is not.
func (p *Pipeline) runEvaluation() (int, error) {
	script := p.settings.EvalScript
	if _, err := os.Stat(script); err != nil {
		return 0, fmt.Errorf("evaluation script %s not found in %s", script, p.workDirAbs)
	}

	result, err := p.python.RunScript(script)
	if err != nil {
		return 0, err
	}
	return result.ExitCode, nil
}

// report surfaces the results artifact. The gate already established we are
// under CI, so the attachment directive is emitted whenever the file exists.
func (p *Pipeline) report(s *Summary) {
	path := filepath.Join(p.workDirAbs, filepath.FromSlash(p.settings.ResultsPath))
	if _, err := os.Stat(path); err != nil {
		p.log.Warningf("no evaluation results found at %s", path)
		fmt.Fprintln(p.log.Out, cienv.IssueDirective("warning", "no evaluation results artifact found"))
		return
	}

	p.log.Infof("evaluation results: %s", path)
	s.ResultsFile = path

	report, err := results.Load(path)
	if err != nil {
		p.log.Warningf("could not parse evaluation results: %v", err)
	} else {
		results.Render(p.log.Out, report, p.scoreThreshold())
		if report.StudioURL != "" {
			p.log.Infof("Evaluation studio URL: %s", report.StudioURL)
		}
	}

	fmt.Fprintln(p.log.Out, cienv.UploadFileDirective(path))
}

func (p *Pipeline) scoreThreshold() decimal.Decimal {
	threshold, err := decimal.NewFromString(p.settings.ScoreThreshold)
	if err != nil {
		p.log.Warningf("invalid score threshold %q; using default", p.settings.ScoreThreshold)
		return decimal.NewFromFloat(0.8)
	}
	return threshold
}
