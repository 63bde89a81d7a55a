package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeploymentProfile is the optional YAML profile overriding token
// metadata and request limits per deployment. Reward amounts are not
// configurable here: they are fixed at submission time by the
// reputation table.
type DeploymentProfile struct {
	Token struct {
		Name     string `yaml:"name"`
		Symbol   string `yaml:"symbol"`
		Decimals uint8  `yaml:"decimals"`
		URI      string `yaml:"uri,omitempty"`
	} `yaml:"token"`
	RateLimit struct {
		PerMinute int `yaml:"per_minute"`
		Burst     int `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// DefaultProfile returns the ECO token defaults.
func DefaultProfile() *DeploymentProfile {
	p := &DeploymentProfile{}
	p.Token.Name = "EcoToken"
	p.Token.Symbol = "ECO"
	p.Token.Decimals = 6
	p.RateLimit.PerMinute = 60
	p.RateLimit.Burst = 10
	return p
}

// LoadProfile reads a deployment profile YAML. Missing fields fall
// back to defaults.
func LoadProfile(path string) (*DeploymentProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read profile: %w", err)
	}
	p := DefaultProfile()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("config: parse profile %s: %w", path, err)
	}
	if p.Token.Name == "" || p.Token.Symbol == "" {
		return nil, fmt.Errorf("config: profile %s: token name and symbol are required", path)
	}
	return p, nil
}
