package jsonfs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/bnema/crowdcast/internal/ports"
	"github.com/spf13/viper"
)

const (
	historyPathKey    = "history.path"
	DefaultHistoryCap = 100
)

// MessageHistory keeps the most recent delivered messages, newest first.
type MessageHistory struct {
	path  string
	limit int
	mu    *sync.RWMutex
}

var _ ports.MessageHistory = (*MessageHistory)(nil)

func NewMessageHistory(cfg *viper.Viper, limit int) (*MessageHistory, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if limit <= 0 {
		limit = DefaultHistoryCap
	}

	path, err := resolvePath(cfg.GetString(historyPathKey), "message_history.json")
	if err != nil {
		return nil, err
	}

	return &MessageHistory{path: path, limit: limit, mu: lockForPath(path)}, nil
}

func (h *MessageHistory) Append(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	messages := h.readLocked()
	messages = append([]string{message}, messages...)
	if len(messages) > h.limit {
		messages = messages[:h.limit]
	}

	if err := writeJSONFile(h.path, messages); err != nil {
		return fmt.Errorf("save message history: %w", err)
	}
	return nil
}

func (h *MessageHistory) Recent(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.readLocked(), nil
}

// readLocked treats a missing or corrupt file as empty history.
func (h *MessageHistory) readLocked() []string {
	data, err := os.ReadFile(h.path)
	if err != nil {
		return nil
	}

	var messages []string
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil
	}
	return messages
}
