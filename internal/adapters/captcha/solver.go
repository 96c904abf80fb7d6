package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/crowdcast/internal/ports"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL      = "https://captcha.solvium.io/api/v1"
	DefaultMaxAttempts  = 30
	DefaultPollInterval = 3 * time.Second
	defaultTimeout      = 30 * time.Second
	taskReferrer        = "jammer"
	taskCreated         = "Task created"
	maxErrorBody        = 512
)

var (
	ErrTaskRejected     = errors.New("captcha task rejected")
	ErrSolveFailed      = errors.New("captcha solve failed")
	ErrAttemptsExceeded = errors.New("captcha attempts exhausted")
)

type Config struct {
	BaseURL      string
	APIKey       string
	MaxAttempts  int
	PollInterval time.Duration
	HTTPClient   *http.Client
	Clock        ports.Clock
	Logger       *zap.Logger
}

// Solver submits a task to a solving service and polls until it completes.
type Solver struct {
	baseURL      string
	apiKey       string
	maxAttempts  int
	pollInterval time.Duration
	httpClient   *http.Client
	clock        ports.Clock
	logger       *zap.Logger
}

var _ ports.CaptchaSolver = (*Solver)(nil)

func NewSolver(cfg Config) *Solver {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.Clock == nil {
		cfg.Clock = ports.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Solver{
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		maxAttempts:  cfg.MaxAttempts,
		pollInterval: cfg.PollInterval,
		httpClient:   cfg.HTTPClient,
		clock:        cfg.Clock,
		logger:       cfg.Logger.Named("captcha"),
	}
}

type createResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

type statusResponse struct {
	Status string `json:"status"`
	Result *struct {
		Solution string `json:"solution"`
		Error    string `json:"error"`
	} `json:"result"`
}

func (s *Solver) Solve(ctx context.Context, siteKey, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(siteKey) == "" || strings.TrimSpace(pageURL) == "" {
		return "", fmt.Errorf("site key and page url are required")
	}

	taskID, err := s.createTask(ctx, siteKey, pageURL)
	if err != nil {
		return "", err
	}
	s.logger.Info("captcha task created", zap.String("task_id", taskID))

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		var status statusResponse
		if err := s.get(ctx, "/task/status/"+url.PathEscape(taskID), nil, &status); err != nil {
			return "", fmt.Errorf("poll task %s: %w", taskID, err)
		}

		switch status.Status {
		case "completed":
			if status.Result != nil && status.Result.Solution != "" {
				s.logger.Info("captcha solved", zap.String("task_id", taskID), zap.Int("attempt", attempt))
				return status.Result.Solution, nil
			}
			return "", fmt.Errorf("task %s completed without solution: %w", taskID, ErrSolveFailed)
		case "running", "pending":
			s.logger.Debug("captcha pending", zap.String("task_id", taskID), zap.Int("attempt", attempt))
		default:
			reason := status.Status
			if status.Result != nil && status.Result.Error != "" {
				reason = status.Result.Error
			}
			return "", fmt.Errorf("task %s: %s: %w", taskID, reason, ErrSolveFailed)
		}

		if attempt == s.maxAttempts {
			break
		}
		if err := s.clock.Sleep(ctx, s.pollInterval); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("task %s after %d attempts: %w", taskID, s.maxAttempts, ErrAttemptsExceeded)
}

func (s *Solver) createTask(ctx context.Context, siteKey, pageURL string) (string, error) {
	params := url.Values{}
	params.Set("url", pageURL)
	params.Set("sitekey", siteKey)
	params.Set("ref", taskReferrer)

	var created createResponse
	if err := s.get(ctx, "/task/noname", params, &created); err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	if created.Message != taskCreated || created.TaskID == "" {
		return "", fmt.Errorf("%w: %q", ErrTaskRejected, created.Message)
	}
	return created.TaskID, nil
}

func (s *Solver) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := s.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(body))
		if len(message) > maxErrorBody {
			message = message[:maxErrorBody]
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
