package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModerationPolicy drives the priority rule table and the local keyword
// filter. It can be overridden from a YAML file so keyword lists are tunable
// without a rebuild.
type ModerationPolicy struct {
	// Keywords maps a policy category to the words the local filter flags
	// when the external classifier is unavailable.
	Keywords map[string][]string `yaml:"keywords"`
	// Severe categories reject immediately with no human step.
	Severe []string `yaml:"severe"`
	// High/Medium name the categories for those tiers; score thresholds apply
	// across all categories.
	High        []string `yaml:"high"`
	Medium      []string `yaml:"medium"`
	HighScore   float64  `yaml:"high_score"`
	MediumScore float64  `yaml:"medium_score"`
}

// DefaultModerationPolicy mirrors the category taxonomy of the external
// moderation endpoint.
func DefaultModerationPolicy() *ModerationPolicy {
	return &ModerationPolicy{
		Keywords: map[string][]string{
			"hate":       {"nigger", "nigga", "chink", "spic", "kike", "faggot", "tranny"},
			"harassment": {"kys", "kill yourself", "loser", "worthless"},
			"violence":   {"kill you", "shoot up", "stab", "bomb threat"},
			"self-harm":  {"want to die", "end it all", "cut myself"},
			"sexual":     {"porn", "nudes", "sexting"},
		},
		Severe: []string{
			"hate/threatening",
			"harassment/threatening",
			"self-harm/intent",
			"sexual/minors",
			"violence/graphic",
		},
		High:        []string{"hate", "harassment", "violence"},
		Medium:      []string{"sexual", "self-harm"},
		HighScore:   0.7,
		MediumScore: 0.5,
	}
}

// LoadModerationPolicy reads a policy file, falling back to the defaults when
// the path is empty or the file does not exist.
func LoadModerationPolicy(path string) (*ModerationPolicy, error) {
	if path == "" {
		return DefaultModerationPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultModerationPolicy(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read moderation policy: %w", err)
	}

	policy := DefaultModerationPolicy()
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("parse moderation policy: %w", err)
	}
	return policy, nil
}
