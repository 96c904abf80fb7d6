package domain

import (
	"fmt"
	"strings"
)

type ProfileID string

type Profile struct {
	ID        ProfileID
	Name      string
	Character string
	Tags      []string
	// StorageLocator points at the browser user-data directory that holds the session.
	StorageLocator string
	// CredentialsLocator is a credential-store reference, typically "profiles/<id>".
	CredentialsLocator string
	Proxy              string
	UserAgent          string
}

func (p Profile) Validate() error {
	if strings.TrimSpace(string(p.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(p.Character) == "" {
		return fmt.Errorf("character is required")
	}

	return nil
}

func (p Profile) DisplayName() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return string(p.ID)
}

// HasTag reports whether the profile carries tag, ignoring case.
func (p Profile) HasTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, candidate := range p.Tags {
		if strings.EqualFold(strings.TrimSpace(candidate), tag) {
			return true
		}
	}
	return false
}

type ProfileFilter struct {
	Tag       string
	Character string
}

func (f ProfileFilter) Match(p Profile) bool {
	if strings.TrimSpace(f.Tag) != "" && !p.HasTag(f.Tag) {
		return false
	}
	if strings.TrimSpace(f.Character) != "" && !strings.EqualFold(p.Character, strings.TrimSpace(f.Character)) {
		return false
	}
	return true
}

func FilterProfiles(profiles []Profile, filter ProfileFilter) []Profile {
	result := make([]Profile, 0, len(profiles))
	for _, profile := range profiles {
		if filter.Match(profile) {
			result = append(result, profile)
		}
	}
	return result
}

type Credentials struct {
	Email      string
	Password   string
	IMAPServer string
}
