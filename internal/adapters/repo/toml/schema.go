package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Profiles []profileSchema `toml:"profiles"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported profiles schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type profileSchema struct {
	ID        string        `toml:"id"`
	Name      string        `toml:"name"`
	Character string        `toml:"character"`
	Tags      []string      `toml:"tags,omitempty"`
	Session   sessionSchema `toml:"session"`
	Browser   browserSchema `toml:"browser,omitempty"`
}

type sessionSchema struct {
	StorageLocator     string `toml:"storage"`
	CredentialsLocator string `toml:"credentials"`
}

type browserSchema struct {
	Proxy     string `toml:"proxy,omitempty"`
	UserAgent string `toml:"user_agent,omitempty"`
}
