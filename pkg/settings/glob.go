package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mockfwd/mockfwd/pkg/rule"
)

// LoadGlobs loads additional rules from files matching the given glob
// patterns ("**" is supported for recursive matching). Relative patterns
// are resolved against baseDir. Matches are sorted per pattern so the
// resulting rule order, and therefore route-table construction, is
// deterministic across runs.
//
// Glob-loaded rules are startup seed data only: admin updates rewrite
// the main settings file and do not touch these files.
func LoadGlobs(baseDir string, patterns []string) ([]rule.Rule, error) {
	var rules []rule.Rule
	for _, pattern := range patterns {
		resolved := pattern
		if !filepath.IsAbs(pattern) {
			resolved = filepath.Join(baseDir, pattern)
		}
		matches, err := doublestar.FilepathGlob(resolved)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, path := range matches {
			batch, err := loadRuleFile(path)
			if err != nil {
				return nil, err
			}
			rules = append(rules, batch...)
		}
	}
	for i := range rules {
		if err := ValidateRule(&rules[i]); err != nil {
			return nil, fmt.Errorf("glob rules[%d]: %w", i, err)
		}
	}
	return rules, nil
}

// loadRuleFile reads one rule file. A file may contain either a JSON
// array of rules or a single rule object.
func loadRuleFile(path string) ([]rule.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var batch []rule.Rule
	if err := json.Unmarshal(data, &batch); err == nil {
		return batch, nil
	}
	var one rule.Rule
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parse %s: expected a rule or an array of rules: %w", path, err)
	}
	return []rule.Rule{one}, nil
}
