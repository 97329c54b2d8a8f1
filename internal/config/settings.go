// Package config loads the evaluation settings: built-in defaults overridden
// by an optional .evalsettings.yaml in the working directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SettingsFile is the optional per-directory override file.
const SettingsFile = ".evalsettings.yaml"

// Settings describes the evaluation harness layout inside the working
// directory and the knobs the orchestrator honors.
type Settings struct {
	// Interpreters are tried in order via PATH lookup.
	Interpreters []string `yaml:"interpreters"`
	// Manifest is the pip requirements file, relative to the working dir.
	Manifest string `yaml:"manifest"`
	// FallbackPackages are installed when no manifest is present.
	FallbackPackages []string `yaml:"fallback_packages"`
	// GeneratorScript produces test data; optional.
	GeneratorScript string `yaml:"generator_script"`
	// AreasFlag is the generator's flag for the comma-separated area
	// filter.
	AreasFlag string `yaml:"areas_flag"`
	// EvalScript runs the evaluation; required.
	EvalScript string `yaml:"eval_script"`
	// ResultsPath is where the evaluation writes its JSON artifact,
	// relative to the working dir.
	ResultsPath string `yaml:"results_path"`
	// ScoreThreshold is the pass/fail cutoff applied when the artifact
	// does not carry its own.
	ScoreThreshold string `yaml:"score_threshold"`
}

// Defaults returns the settings matching the stock evaluation harness.
func Defaults() Settings {
	return Settings{
		Interpreters: []string{"python3", "python"},
		Manifest:     "requirements.txt",
		FallbackPackages: []string{
			"openai",
			"azure-ai-evaluation",
			"azure-identity",
			"mcp",
			"python-dotenv",
			"tabulate",
		},
		GeneratorScript: "get_latest_e2e.py",
		AreasFlag:       "--service",
		EvalScript:      "run.py",
		ResultsPath:     filepath.Join(".log", "evaluation_result.json"),
		ScoreThreshold:  "0.8",
	}
}

// Load returns Defaults overlaid with the settings file in dir, if present.
// A missing file is not an error; a malformed one is.
func Load(dir string) (Settings, error) {
	s := Defaults()

	path := filepath.Join(dir, SettingsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var overlay Settings
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return s, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	if len(overlay.Interpreters) > 0 {
		s.Interpreters = overlay.Interpreters
	}
	if overlay.Manifest != "" {
		s.Manifest = overlay.Manifest
	}
	if len(overlay.FallbackPackages) > 0 {
		s.FallbackPackages = overlay.FallbackPackages
	}
	if overlay.GeneratorScript != "" {
		s.GeneratorScript = overlay.GeneratorScript
	}
	if overlay.AreasFlag != "" {
		s.AreasFlag = overlay.AreasFlag
	}
	if overlay.EvalScript != "" {
		s.EvalScript = overlay.EvalScript
	}
	if overlay.ResultsPath != "" {
		s.ResultsPath = overlay.ResultsPath
	}
	if overlay.ScoreThreshold != "" {
		s.ScoreThreshold = overlay.ScoreThreshold
	}

	return s, nil
}
