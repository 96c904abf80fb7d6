package mail

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bnema/crowdcast/internal/ports"
	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultSubject      = "Towns"
)

var DefaultSenders = []string{"no-reply@privy.io", "no-reply@mail.privy.io"}

var ErrCodeNotReceived = errors.New("verification code not received")

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

type Message struct {
	From    string
	Subject string
	Text    string
}

type Query struct {
	Senders []string
	Subject string
}

// Mailbox returns unseen messages matching a query; returned messages are marked seen.
type Mailbox interface {
	Unseen(ctx context.Context, query Query) ([]Message, error)
	MarkSeen(ctx context.Context, query Query) (int, error)
}

type ReaderConfig struct {
	Query        Query
	PollInterval time.Duration
	// SkipExisting marks matching unread mail as seen before polling so stale codes are ignored.
	SkipExisting bool
}

type Reader struct {
	box    Mailbox
	cfg    ReaderConfig
	clock  ports.Clock
	logger *zap.Logger
}

var _ ports.EmailCodeReader = (*Reader)(nil)

func NewReader(box Mailbox, cfg ReaderConfig, clock ports.Clock, logger *zap.Logger) *Reader {
	if len(cfg.Query.Senders) == 0 {
		cfg.Query.Senders = append([]string(nil), DefaultSenders...)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reader{box: box, cfg: cfg, clock: clock, logger: logger.Named("mail")}
}

func (r *Reader) AwaitCode(ctx context.Context, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if r.cfg.SkipExisting {
		marked, err := r.box.MarkSeen(ctx, r.cfg.Query)
		if err != nil {
			return "", fmt.Errorf("mark existing mail seen: %w", err)
		}
		r.logger.Debug("existing mail marked seen", zap.Int("count", marked))
	}

	attempts := int(timeout/r.cfg.PollInterval) + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		messages, err := r.box.Unseen(ctx, r.cfg.Query)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			r.logger.Warn("check mailbox failed", zap.Int("attempt", attempt), zap.Error(err))
		}

		for _, message := range messages {
			if code, ok := ExtractCode(message); ok {
				r.logger.Info("verification code received", zap.String("from", message.From), zap.Int("attempt", attempt))
				return code, nil
			}
			r.logger.Debug("message without code", zap.String("subject", message.Subject))
		}

		if attempt == attempts {
			break
		}
		if err := r.clock.Sleep(ctx, r.cfg.PollInterval); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("after %s: %w", timeout, ErrCodeNotReceived)
}

// ExtractCode finds the first six-digit code in the message text, then the subject.
func ExtractCode(message Message) (string, bool) {
	for _, text := range []string{message.Text, message.Subject} {
		if code := codePattern.FindString(text); code != "" {
			return code, true
		}
	}
	return "", false
}

func normalizeSenders(senders []string) []string {
	result := make([]string, 0, len(senders))
	for _, sender := range senders {
		if sender = strings.TrimSpace(sender); sender != "" {
			result = append(result, sender)
		}
	}
	return result
}
