// Package merge combines normalized per-domain records into a single report
// with derived metrics, including the collaborative street-works
// recommendation driven by a versioned rule table.
package merge

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Severity and sensitivity levels used by the rule table.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Rule is one row of the decision table. Empty fields are wildcards; the
// first rule whose set fields all match fires.
type Rule struct {
	Name           string `yaml:"name"`
	Severity       string `yaml:"severity,omitempty"`
	Sensitivity    string `yaml:"sensitivity,omitempty"`
	RecentWorks    *bool  `yaml:"recent_works,omitempty"`
	Recommendation string `yaml:"recommendation"`
}

// Rules is the collaborative-works rule table. Thresholds and classifications
// are data so they can evolve without a release.
type Rules struct {
	Version            int      `yaml:"version"`
	SevereDesignations []string `yaml:"severe_designations"`
	SensitiveLandUse   struct {
		High   []string `yaml:"high"`
		Medium []string `yaml:"medium"`
	} `yaml:"sensitive_land_use"`
	RecentWorksWindowDays int    `yaml:"recent_works_window_days"`
	Rules                 []Rule `yaml:"rules"`
}

// DefaultRules parses the embedded rule table.
func DefaultRules() (*Rules, error) {
	return parseRules(defaultRulesYAML)
}

// LoadRules reads a rule table from disk, falling back to the embedded
// defaults when path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "merge: read rules %s", path)
	}
	return parseRules(data)
}

func parseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "merge: parse rules")
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Rules) validate() error {
	if r.Version < 1 {
		return eris.New("merge: rules need a version >= 1")
	}
	if len(r.Rules) == 0 {
		return eris.New("merge: rules table is empty")
	}
	for i, rule := range r.Rules {
		if rule.Name == "" {
			return eris.Errorf("merge: rule %d has no name", i)
		}
		if rule.Recommendation == "" {
			return eris.Errorf("merge: rule %q has no recommendation", rule.Name)
		}
		for _, level := range []string{rule.Severity, rule.Sensitivity} {
			switch level {
			case "", LevelHigh, LevelMedium, LevelLow:
			default:
				return eris.Errorf("merge: rule %q has unknown level %q", rule.Name, level)
			}
		}
	}
	last := r.Rules[len(r.Rules)-1]
	if last.Severity != "" || last.Sensitivity != "" || last.RecentWorks != nil {
		return eris.Errorf("merge: last rule %q must be a catch-all", last.Name)
	}
	return nil
}

// Evaluate returns the first matching rule. The catch-all guarantees a match.
func (r *Rules) Evaluate(severity, sensitivity string, recentWorks bool) Rule {
	for _, rule := range r.Rules {
		if rule.Severity != "" && rule.Severity != severity {
			continue
		}
		if rule.Sensitivity != "" && rule.Sensitivity != sensitivity {
			continue
		}
		if rule.RecentWorks != nil && *rule.RecentWorks != recentWorks {
			continue
		}
		return rule
	}
	return r.Rules[len(r.Rules)-1]
}

// IsSevere reports whether a designation value is in the severe list.
func (r *Rules) IsSevere(designation string) bool {
	return contains(r.SevereDesignations, designation)
}

// SensitivityOf classifies a land-use category.
func (r *Rules) SensitivityOf(category string) string {
	switch {
	case contains(r.SensitiveLandUse.High, category):
		return LevelHigh
	case contains(r.SensitiveLandUse.Medium, category):
		return LevelMedium
	default:
		return LevelLow
	}
}

func contains(list []string, value string) bool {
	key := matchKey(value)
	for _, entry := range list {
		if matchKey(entry) == key {
			return true
		}
	}
	return false
}

// matchKey folds case and hyphenation so "Traffic-Sensitive" and
// "traffic sensitive" compare equal.
func matchKey(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "-", " "))
	return strings.Join(strings.Fields(s), " ")
}
