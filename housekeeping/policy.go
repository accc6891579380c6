package housekeeping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy says where stray files go and what counts as temporary.
type Policy struct {
	ExportsDir string `yaml:"exports_dir"`
	LogsDir    string `yaml:"logs_dir"`
	// TempPatterns are glob patterns relative to the root. A trailing slash
	// marks a directory to remove recursively.
	TempPatterns []string `yaml:"temp_patterns"`
	SummaryDirs  []string `yaml:"summary_dirs"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		ExportsDir: "exports",
		LogsDir:    "logs",
		TempPatterns: []string{
			"__pycache__/",
			"*.pyc",
			"*.pyo",
			"*.pyd",
			".DS_Store",
			"*.tmp",
			"*.temp",
		},
		SummaryDirs: []string{"exports", "logs", "data"},
	}
}

// LoadPolicy reads a YAML policy file. Fields left out keep their default.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("housekeeping: read policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("housekeeping: parse policy %q: %w", path, err)
	}
	return p, nil
}
