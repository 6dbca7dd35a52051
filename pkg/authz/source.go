package authz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// policyFile is the on-disk policy document shape.
type policyFile struct {
	Policies []*Policy `yaml:"policies"`
}

// LoadPolicyFile reads, parses, and validates a policy set from a YAML
// file. A malformed policy file fails the whole load; silently dropping
// policies would change authorization outcomes.
func LoadPolicyFile(path string) (*PolicySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file %q: %w", path, err)
	}
	return ParsePolicies(data)
}

// ParsePolicies parses and validates a YAML policy document.
func ParsePolicies(data []byte) (*PolicySet, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse policy document: %w", err)
	}
	return NewPolicySet(file.Policies)
}
