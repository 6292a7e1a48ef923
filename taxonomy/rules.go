package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rule is one declarative classification rule. Exactly one of Type or
// Prefix must be set.
type Rule struct {
	Type   string `yaml:"type,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
	Kind   string `yaml:"kind,omitempty"`
}

// Rules is the declarative form of registry contents, loadable from a
// YAML file at configuration time:
//
//	opaque:
//	  - type: os.File
//	    kind: io-channel
//	  - prefix: "cgo."
//	    kind: foreign-runtime-handle
//	allow:
//	  - type: mypkg.SafeConn
type Rules struct {
	Opaque []Rule `yaml:"opaque"`
	Allow  []Rule `yaml:"allow"`
}

// ParseRules decodes a YAML rules document.
func ParseRules(data []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("taxonomy: parse rules: %w", err)
	}
	return rules, nil
}

// Apply registers every rule into the registry. Opaque rules with no
// kind default to other-opaque; allow rules must not carry a kind.
func (rs Rules) Apply(r *Registry) error {
	for i, rule := range rs.Opaque {
		kind := Kind(rule.Kind)
		if kind == "" {
			kind = KindOtherOpaque
		}
		switch {
		case rule.Type != "" && rule.Prefix != "":
			return fmt.Errorf("taxonomy: opaque rule %d: both type and prefix set", i)
		case rule.Type != "":
			r.RegisterOpaque(rule.Type, kind)
		case rule.Prefix != "":
			r.RegisterOpaquePrefix(rule.Prefix, kind)
		default:
			return fmt.Errorf("taxonomy: opaque rule %d: neither type nor prefix set", i)
		}
	}

	for i, rule := range rs.Allow {
		if rule.Kind != "" {
			return fmt.Errorf("taxonomy: allow rule %d: kind is not allowed", i)
		}
		switch {
		case rule.Type != "" && rule.Prefix != "":
			return fmt.Errorf("taxonomy: allow rule %d: both type and prefix set", i)
		case rule.Type != "":
			r.Allow(rule.Type)
		case rule.Prefix != "":
			r.AllowPrefix(rule.Prefix)
		default:
			return fmt.Errorf("taxonomy: allow rule %d: neither type nor prefix set", i)
		}
	}

	return nil
}

// LoadRules reads a YAML rules file and applies it to the registry.
func LoadRules(path string, r *Registry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("taxonomy: read rules file: %w", err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return err
	}
	return rules.Apply(r)
}
