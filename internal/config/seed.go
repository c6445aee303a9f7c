package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the optional RAPHAEL_CONFIG_FILE shape: OAuth allowlist
// policy and default per-Drop permissions, loaded once at startup and
// seeded into AppSetting idempotently. Environment variables always
// win over values from this file.
type SeedFile struct {
	AllowedEmails  []string `yaml:"allowed_emails"`
	AllowedDomains []string `yaml:"allowed_domains"`
	DefaultCanIngest bool   `yaml:"default_can_ingest"`
	DefaultCanQuery  bool   `yaml:"default_can_query"`
}

// LoadSeedFile parses a YAML seed file. Returns (nil, nil) when path is
// empty — the file is entirely optional.
func LoadSeedFile(path string) (*SeedFile, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, err
	}
	return &seed, nil
}
