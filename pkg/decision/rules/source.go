package rules

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"shahin-hq/mizan/pkg/decision"
)

//go:embed builtin.yaml
var builtinRules []byte

// ruleFile is the on-disk rule document shape.
type ruleFile struct {
	Rules []*Rule `yaml:"rules"`
}

// Builtin returns the compiled-in rule set covering the KSA regulatory
// baseline. It is the default when no rules path is configured.
func Builtin() (*RuleSet, error) {
	return parseRules(builtinRules, "builtin")
}

// FileSource loads rule sets from YAML files on disk. The path can be a
// single file or a directory; directories load every .yaml and .yml file
// in lexical order.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file-backed rule source.
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path:   path,
		logger: slog.Default().With("component", "decision.rules"),
	}
}

// Load reads, parses, and validates the rule set. Unlike presentation
// assets, a malformed rule file fails the whole load; silently dropping
// rules would change decision outcomes.
func (s *FileSource) Load() (*RuleSet, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("stat rules path %q: %w", s.path, err)
	}

	paths := []string{s.path}
	if info.IsDir() {
		paths, err = listRuleFiles(s.path)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, decision.NewValidationError("", "path",
				fmt.Sprintf("rules directory %q contains no .yaml or .yml files", s.path))
		}
	}

	var rules []*Rule
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rules file %q: %w", path, err)
		}
		set, err := parseRules(data, path)
		if err != nil {
			return nil, err
		}
		rules = append(rules, set.rules...)
	}

	set, err := NewRuleSet(rules)
	if err != nil {
		return nil, err
	}

	s.logger.Info("loaded rules",
		"path", s.path,
		"files", len(paths),
		"rules", set.Len())
	return set, nil
}

func listRuleFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk rules directory %q: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func parseRules(data []byte, origin string) (*RuleSet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file ruleFile
	if err := dec.Decode(&file); err != nil {
		return nil, decision.NewValidationError("", "rules",
			fmt.Sprintf("parse %s: %v", origin, err))
	}
	if len(file.Rules) == 0 {
		return nil, decision.NewValidationError("", "rules",
			fmt.Sprintf("%s declares no rules", origin))
	}
	return NewRuleSet(file.Rules)
}
