package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/crowdcast/internal/adapters/browser"
	"github.com/bnema/crowdcast/internal/adapters/captcha"
	"github.com/bnema/crowdcast/internal/adapters/llm/gemini"
	"github.com/bnema/crowdcast/internal/adapters/llm/openai"
	"github.com/bnema/crowdcast/internal/adapters/mail"
	"github.com/bnema/crowdcast/internal/adapters/persona"
	draftsrender "github.com/bnema/crowdcast/internal/adapters/render/drafts"
	"github.com/bnema/crowdcast/internal/adapters/repo/jsonfs"
	tomlrepo "github.com/bnema/crowdcast/internal/adapters/repo/toml"
	chainstore "github.com/bnema/crowdcast/internal/adapters/secrets/chain"
	"github.com/bnema/crowdcast/internal/adapters/settings"
	"github.com/bnema/crowdcast/internal/application"
	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/pathutil"
	"github.com/bnema/crowdcast/internal/ports"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	configDirName  = ".crowdcast"
	configFileName = "config.toml"
	configEnvVar   = "CROWDCAST_CONFIG"
	envPrefix      = "CROWDCAST"

	providerOpenAI = "openai"
	providerGemini = "gemini"
)

var errUnknownProvider = errors.New("unknown llm provider")

type app struct {
	cfg      *viper.Viper
	logger   *zap.Logger
	homeDir  string
	now      func() time.Time
	clock    ports.Clock
	registry *browser.Registry

	profiles *tomlrepo.ProfileRepository
	insights *jsonfs.InsightRepository
	settings *settings.Source
	creds    ports.CredentialStore

	render    renderers
	closeOnce sync.Once
}

type renderers struct {
	list    func([]domain.DraftSummary, draftsrender.RenderOptions) (string, error)
	draft   func(domain.Draft, draftsrender.RenderOptions) (string, error)
	plan    func(application.PlanResult, draftsrender.RenderOptions) (string, error)
	publish func(application.PublishResult) (string, error)
}

func wireApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	profiles, err := tomlrepo.NewProfileRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}

	insights, err := jsonfs.NewInsightRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire insight repository: %w", err)
	}

	source, err := settings.NewSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire settings source: %w", err)
	}

	creds, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(homeDir, configDirName, "secrets"))
	if err != nil {
		return nil, fmt.Errorf("wire credential store chain: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   zap.NewNop(),
		homeDir:  homeDir,
		now:      time.Now,
		clock:    ports.SystemClock{},
		registry: browser.NewRegistry(),
		profiles: profiles,
		insights: insights,
		settings: source,
		creds:    creds,
		render: renderers{
			list:    draftsrender.RenderList,
			draft:   draftsrender.RenderDraft,
			plan:    draftsrender.RenderPlan,
			publish: draftsrender.RenderPublish,
		},
	}, nil
}

// loadConfig reads .env, then the optional TOML config file, then CROWDCAST_* environment overrides.
func loadConfig() (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := viper.New()
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault("llm.provider", providerOpenAI)
	cfg.SetDefault("llm.temperature", application.DefaultResponseTemperature)
	cfg.SetDefault("llm.max_tokens", application.DefaultResponseMaxTokens)
	cfg.SetDefault("llm.thinking_budget", 0)
	cfg.SetDefault("discussion.consume_on_plan", true)
	cfg.SetDefault("personas.insider", application.DefaultInsiderCharacter)
	cfg.SetDefault("browser.headless", false)
	cfg.SetDefault("browser.navigation_timeout", browser.DefaultNavigationTimeout)
	cfg.SetDefault("mail.subject", mail.DefaultSubject)
	cfg.SetDefault("mail.server", mail.DefaultIMAPServer)
	cfg.SetDefault("captcha.base_url", captcha.DefaultBaseURL)

	if err := cfg.BindEnv("llm.api_key", envPrefix+"_LLM_API_KEY", "GROQ_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind llm api key: %w", err)
	}
	if err := cfg.BindEnv("captcha.api_key", envPrefix+"_CAPTCHA_API_KEY", "SOLVIUM_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind captcha api key: %w", err)
	}

	path, explicit := os.LookupEnv(configEnvVar)
	if !explicit {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, configDirName, configFileName)
	}
	path, err := pathutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("stat config file %q: %w", path, err)
	}

	cfg.SetConfigFile(path)
	if err := cfg.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	return cfg, nil
}

func (a *app) close() {
	a.closeOnce.Do(func() {
		if err := a.registry.CloseAll(); err != nil {
			a.logger.Warn("close browser sessions", zap.Error(err))
		}
		_ = a.logger.Sync()
	})
}

func (a *app) configPath(key string, parts ...string) string {
	if configured := strings.TrimSpace(a.cfg.GetString(key)); configured != "" {
		if expanded, err := pathutil.ExpandHome(configured); err == nil {
			return expanded
		}
		return configured
	}
	return filepath.Join(append([]string{a.homeDir, configDirName}, parts...)...)
}

func (a *app) draftRepository() (*jsonfs.DraftRepository, error) {
	drafts, err := jsonfs.NewDraftRepository(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("wire draft repository: %w", err)
	}
	return drafts, nil
}

func (a *app) profileService() *application.ProfileService {
	return application.NewProfileService(a.profiles, a.creds)
}

func (a *app) draftService() (*application.DraftService, error) {
	drafts, err := a.draftRepository()
	if err != nil {
		return nil, err
	}
	return application.NewDraftService(drafts, a.insights), nil
}

func (a *app) personaCatalog(ctx context.Context) (*persona.Catalog, error) {
	catalog := persona.NewCatalog(a.cfg.GetString("personas.main"), a.logger)
	if err := catalog.Load(ctx, a.configPath("personas.dir", "personas")); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (a *app) completer(ctx context.Context) (ports.Completer, error) {
	provider := strings.ToLower(strings.TrimSpace(a.cfg.GetString("llm.provider")))
	switch provider {
	case providerOpenAI, "":
		return openai.NewClient(openai.Config{
			BaseURL: a.cfg.GetString("llm.base_url"),
			APIKey:  a.cfg.GetString("llm.api_key"),
			Model:   a.cfg.GetString("llm.model"),
			Logger:  a.logger,
		}), nil
	case providerGemini:
		client, err := gemini.NewClient(ctx, a.cfg.GetString("llm.api_key"), a.cfg.GetString("llm.model"), a.cfg.GetInt32("llm.thinking_budget"), a.logger)
		if err != nil {
			return nil, fmt.Errorf("wire gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownProvider, provider)
	}
}

func (a *app) planner(ctx context.Context) (*application.Planner, error) {
	catalog, err := a.personaCatalog(ctx)
	if err != nil {
		return nil, err
	}

	completer, err := a.completer(ctx)
	if err != nil {
		return nil, err
	}

	drafts, err := a.draftRepository()
	if err != nil {
		return nil, err
	}

	generator := application.NewResponseGenerator(completer,
		application.WithTemperature(a.cfg.GetFloat64("llm.temperature")),
		application.WithMaxTokens(a.cfg.GetInt("llm.max_tokens")),
	)

	return application.NewPlanner(
		a.settings,
		a.profiles,
		a.insights,
		catalog,
		generator,
		drafts,
		application.PlannerConfig{
			InsiderCharacter: a.cfg.GetString("personas.insider"),
			ConsumeOnPlan:    a.cfg.GetBool("discussion.consume_on_plan"),
		},
		application.WithPlannerLogger(a.logger),
		application.WithPlannerClock(a.clock),
	), nil
}

func (a *app) publisher() (*application.Publisher, error) {
	drafts, err := a.draftRepository()
	if err != nil {
		return nil, err
	}

	history, err := jsonfs.NewMessageHistory(a.cfg, 0)
	if err != nil {
		return nil, fmt.Errorf("wire message history: %w", err)
	}

	browserCfg := browser.Config{
		Bin:               a.cfg.GetString("browser.bin"),
		Headless:          a.cfg.GetBool("browser.headless"),
		EditorSelector:    a.cfg.GetString("browser.editor_selector"),
		FileInputSelector: a.cfg.GetString("browser.file_input_selector"),
		NavigationTimeout: a.cfg.GetDuration("browser.navigation_timeout"),
	}
	open := func(ctx context.Context, profile domain.Profile) (browser.Session, error) {
		return browser.OpenRodSession(ctx, browserCfg, profile)
	}

	poster := browser.NewPoster(a.profiles, a.registry, open, a.configPath("browser.images_dir", "images"), a.logger)
	return application.NewPublisher(drafts, a.insights, poster, history, a.clock, a.logger), nil
}

func (a *app) mailReader(ctx context.Context, profileID domain.ProfileID, skipExisting bool) (*mail.Reader, error) {
	creds, err := a.profileService().Credentials(ctx, profileID)
	if err != nil {
		return nil, err
	}

	var senders []string
	if sender := strings.TrimSpace(a.cfg.GetString("mail.sender")); sender != "" {
		senders = strings.Split(sender, ",")
	}

	box := mail.NewIMAPMailbox(creds, a.cfg.GetString("mail.server"))
	return mail.NewReader(box, mail.ReaderConfig{
		Query:        mail.Query{Senders: senders, Subject: a.cfg.GetString("mail.subject")},
		SkipExisting: skipExisting,
	}, a.clock, a.logger), nil
}

func (a *app) captchaSolver() *captcha.Solver {
	return captcha.NewSolver(captcha.Config{
		BaseURL: a.cfg.GetString("captcha.base_url"),
		APIKey:  a.cfg.GetString("captcha.api_key"),
		Clock:   a.clock,
		Logger:  a.logger,
	})
}
