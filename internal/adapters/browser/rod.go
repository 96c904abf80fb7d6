package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	DefaultEditorSelector    = `div[contenteditable="true"]`
	DefaultFileInputSelector = `input[type="file"]`
	DefaultNavigationTimeout = 60 * time.Second
	uploadSettleDelay        = 2 * time.Second
)

type Config struct {
	Bin               string
	Headless          bool
	EditorSelector    string
	FileInputSelector string
	NavigationTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.EditorSelector) == "" {
		c.EditorSelector = DefaultEditorSelector
	}
	if strings.TrimSpace(c.FileInputSelector) == "" {
		c.FileInputSelector = DefaultFileInputSelector
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = DefaultNavigationTimeout
	}
	return c
}

type rodSession struct {
	cfg     Config
	browser *rod.Browser
	page    *rod.Page
	current string
}

// OpenRodSession launches a browser on the profile's persisted user-data dir.
func OpenRodSession(ctx context.Context, cfg Config, profile domain.Profile) (Session, error) {
	cfg = cfg.withDefaults()

	launch := launcher.New().Headless(cfg.Headless)
	if bin := strings.TrimSpace(cfg.Bin); bin != "" {
		launch = launch.Bin(bin)
	}
	if dir := strings.TrimSpace(profile.StorageLocator); dir != "" {
		launch = launch.UserDataDir(dir)
	}
	if proxy := strings.TrimSpace(profile.Proxy); proxy != "" && proxy != "direct" {
		launch = launch.Proxy(proxy)
	}

	controlURL, err := launch.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser for profile %s: %w", profile.ID, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		launch.Kill()
		return nil, fmt.Errorf("connect browser for profile %s: %w", profile.ID, err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("open page for profile %s: %w", profile.ID, err)
	}

	if ua := strings.TrimSpace(profile.UserAgent); ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			_ = browser.Close()
			return nil, fmt.Errorf("set user agent for profile %s: %w", profile.ID, err)
		}
	}

	return &rodSession{cfg: cfg, browser: browser, page: page}, nil
}

func (s *rodSession) Open(ctx context.Context, url string) error {
	if s.current == url {
		return nil
	}

	page := s.page.Context(ctx).Timeout(s.cfg.NavigationTimeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s: %w", url, err)
	}
	if _, err := page.Element(s.cfg.EditorSelector); err != nil {
		return fmt.Errorf("wait for editor: %w", err)
	}

	s.current = url
	return nil
}

func (s *rodSession) Attach(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}

	el, err := s.page.Context(ctx).Timeout(s.cfg.NavigationTimeout).Element(s.cfg.FileInputSelector)
	if err != nil {
		return fmt.Errorf("find file input: %w", err)
	}
	if err := el.SetFiles(files); err != nil {
		return fmt.Errorf("attach files: %w", err)
	}

	timer := time.NewTimer(uploadSettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *rodSession) Send(ctx context.Context, text string) error {
	el, err := s.page.Context(ctx).Timeout(s.cfg.NavigationTimeout).Element(s.cfg.EditorSelector)
	if err != nil {
		return fmt.Errorf("find editor: %w", err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("type message: %w", err)
	}
	if err := el.Type(input.Enter); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (s *rodSession) Close() error {
	if err := s.browser.Close(); err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
