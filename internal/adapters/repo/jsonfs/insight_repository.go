package jsonfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
	"github.com/spf13/viper"
)

const insightsDirKey = "insights.dir"

type InsightRepository struct {
	dir  string
	intN func(n int) int
}

var _ ports.InsightRepository = (*InsightRepository)(nil)

func NewInsightRepository(cfg *viper.Viper) (*InsightRepository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	dir, err := resolvePath(cfg.GetString(insightsDirKey), "insights")
	if err != nil {
		return nil, err
	}

	return &InsightRepository{dir: dir, intN: rand.IntN}, nil
}

func (r *InsightRepository) Dir() string {
	return r.dir
}

func (r *InsightRepository) RandomID(ctx context.Context) (domain.InsightID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	names, err := listJSON(r.dir, "")
	if err != nil {
		return "", fmt.Errorf("list insights: %w", err)
	}
	if len(names) == 0 {
		return "", domain.ErrNoInsightsAvailable
	}

	picked := names[r.intN(len(names))]
	return domain.InsightID(strings.TrimSuffix(picked, ".json")), nil
}

func (r *InsightRepository) GetByID(ctx context.Context, id domain.InsightID) (domain.Insight, error) {
	if err := ctx.Err(); err != nil {
		return domain.Insight{}, err
	}
	if err := checkID(string(id)); err != nil {
		return domain.Insight{}, err
	}

	data, err := os.ReadFile(r.pathFor(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Insight{}, fmt.Errorf("%s: %w", id, domain.ErrInsightNotFound)
		}
		return domain.Insight{}, fmt.Errorf("read insight %s: %w", id, err)
	}

	var record insightRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.Insight{}, fmt.Errorf("decode insight %s: %w", id, err)
	}

	return record.toDomain(id), nil
}

func (r *InsightRepository) Save(ctx context.Context, insight domain.Insight) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkID(string(insight.ID)); err != nil {
		return err
	}

	if err := writeJSONFile(r.pathFor(insight.ID), fromInsight(insight)); err != nil {
		return fmt.Errorf("save insight %s: %w", insight.ID, err)
	}
	return nil
}

func (r *InsightRepository) Delete(ctx context.Context, id domain.InsightID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkID(string(id)); err != nil {
		return err
	}

	if err := removeFile(r.pathFor(id)); err != nil {
		return fmt.Errorf("delete insight %s: %w", id, err)
	}
	return nil
}

func (r *InsightRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	names, err := listJSON(r.dir, "")
	if err != nil {
		return 0, fmt.Errorf("count insights: %w", err)
	}
	return len(names), nil
}

func (r *InsightRepository) pathFor(id domain.InsightID) string {
	return filepath.Join(r.dir, string(id)+".json")
}

type insightRecord struct {
	PostID      postID   `json:"postId"`
	Content     string   `json:"content"`
	Images      []string `json:"images"`
	GeneratedAt string   `json:"generatedAt,omitempty"`
}

// postID accepts both numeric and string ids; upstream generators emit either.
type postID string

func (p *postID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = postID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("post id: %w", err)
	}
	*p = postID(n.String())
	return nil
}

func (r insightRecord) toDomain(id domain.InsightID) domain.Insight {
	insight := domain.Insight{
		ID:      id,
		PostID:  string(r.PostID),
		Content: r.Content,
		Images:  append([]string(nil), r.Images...),
	}
	if r.GeneratedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, r.GeneratedAt); err == nil {
			insight.GeneratedAt = parsed
		}
	}
	return insight
}

func fromInsight(insight domain.Insight) insightRecord {
	record := insightRecord{
		PostID:  postID(insight.PostID),
		Content: insight.Content,
		Images:  append([]string{}, insight.Images...),
	}
	if !insight.GeneratedAt.IsZero() {
		record.GeneratedAt = insight.GeneratedAt.UTC().Format(time.RFC3339)
	}
	return record
}
