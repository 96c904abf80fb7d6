package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/pathutil"
	"github.com/bnema/crowdcast/internal/ports"
	"github.com/spf13/viper"
)

const (
	settingsPathKey = "settings.path"
	groupsPathKey   = "groups.path"
	configDir       = ".crowdcast"
)

// Source reads discussion settings and chat groups from JSON documents on every call.
type Source struct {
	settingsPath string
	groupsPath   string
}

var _ ports.SettingsSource = (*Source)(nil)

func NewSource(cfg *viper.Viper) (*Source, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	settingsPath, err := resolvePath(cfg.GetString(settingsPathKey), "discussion_settings.json")
	if err != nil {
		return nil, err
	}
	groupsPath, err := resolvePath(cfg.GetString(groupsPathKey), "groups.json")
	if err != nil {
		return nil, err
	}

	return &Source{settingsPath: settingsPath, groupsPath: groupsPath}, nil
}

type settingsDocument struct {
	MessageDelay struct {
		Min int64 `mapstructure:"min"`
		Max int64 `mapstructure:"max"`
	} `mapstructure:"messageDelay"`
	MinProfiles int    `mapstructure:"minProfiles"`
	MaxProfiles int    `mapstructure:"maxProfiles"`
	GroupTag    string `mapstructure:"groupTag"`
}

type groupDocument struct {
	GroupTag string   `mapstructure:"groupTag"`
	ChatURLs []string `mapstructure:"chatUrls"`
}

// DiscussionSettings returns zero settings when the file does not exist; callers apply defaults.
func (s *Source) DiscussionSettings(ctx context.Context) (domain.DiscussionSettings, error) {
	if err := ctx.Err(); err != nil {
		return domain.DiscussionSettings{}, err
	}

	doc := viper.New()
	if err := readDocument(doc, s.settingsPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DiscussionSettings{}, nil
		}
		return domain.DiscussionSettings{}, fmt.Errorf("read discussion settings: %w", err)
	}

	var decoded settingsDocument
	if err := doc.Unmarshal(&decoded); err != nil {
		return domain.DiscussionSettings{}, fmt.Errorf("decode discussion settings: %w", err)
	}

	return domain.DiscussionSettings{
		MessageDelay: domain.DelayRange{
			Min: time.Duration(decoded.MessageDelay.Min) * time.Millisecond,
			Max: time.Duration(decoded.MessageDelay.Max) * time.Millisecond,
		},
		MinProfiles: decoded.MinProfiles,
		MaxProfiles: decoded.MaxProfiles,
		GroupTag:    strings.TrimSpace(decoded.GroupTag),
	}, nil
}

func (s *Source) ChatGroups(ctx context.Context) ([]domain.ChatGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := viper.New()
	if err := readDocument(doc, s.groupsPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read chat groups: %w", err)
	}

	var decoded []groupDocument
	if err := doc.UnmarshalKey("groups", &decoded); err != nil {
		return nil, fmt.Errorf("decode chat groups: %w", err)
	}

	groups := make([]domain.ChatGroup, 0, len(decoded))
	for _, group := range decoded {
		groups = append(groups, domain.ChatGroup{
			GroupTag: strings.TrimSpace(group.GroupTag),
			ChatURLs: append([]string(nil), group.ChatURLs...),
		})
	}
	return groups, nil
}

func readDocument(doc *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	doc.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		doc.SetConfigType("json")
	}
	return doc.ReadInConfig()
}

func resolvePath(configured, fileName string) (string, error) {
	path := strings.TrimSpace(configured)
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, configDir, fileName)
	}

	resolved, err := pathutil.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("resolve settings path: %w", err)
	}
	return resolved, nil
}
