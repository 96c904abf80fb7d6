package jsonfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	draftsDirKey    = "drafts.dir"
	draftFilePrefix = "discussion_"
	draftFileSuffix = ".json"
)

type DraftRepository struct {
	dir    string
	mu     *sync.RWMutex
	logger *zap.Logger
}

var _ ports.DraftRepository = (*DraftRepository)(nil)

func NewDraftRepository(cfg *viper.Viper, logger *zap.Logger) (*DraftRepository, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dir, err := resolvePath(cfg.GetString(draftsDirKey), "drafts")
	if err != nil {
		return nil, err
	}

	return &DraftRepository{dir: dir, mu: lockForPath(dir), logger: logger.Named("drafts")}, nil
}

func (r *DraftRepository) Save(ctx context.Context, draft domain.Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkID(string(draft.ID)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.pathFor(draft.ID)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", draft.ID, domain.ErrDraftExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat draft %s: %w", draft.ID, err)
	}

	if err := writeJSONFile(path, fromDraft(draft)); err != nil {
		return fmt.Errorf("save draft %s: %w", draft.ID, err)
	}
	return nil
}

func (r *DraftRepository) GetByID(ctx context.Context, id domain.DraftID) (domain.Draft, error) {
	if err := ctx.Err(); err != nil {
		return domain.Draft{}, err
	}
	if err := checkID(string(id)); err != nil {
		return domain.Draft{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read(r.pathFor(id), id)
}

// List returns summaries newest first, skipping files that cannot be decoded.
func (r *DraftRepository) List(ctx context.Context) ([]domain.DraftSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names, err := listJSON(r.dir, draftFilePrefix)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	summaries := make([]domain.DraftSummary, 0, len(names))
	for _, name := range names {
		id := domain.DraftID(strings.TrimSuffix(strings.TrimPrefix(name, draftFilePrefix), draftFileSuffix))
		draft, err := r.read(filepath.Join(r.dir, name), id)
		if err != nil {
			r.logger.Warn("skip unreadable draft", zap.String("file", name), zap.Error(err))
			continue
		}
		summaries = append(summaries, draft.Summary())
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (r *DraftRepository) Delete(ctx context.Context, id domain.DraftID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkID(string(id)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := removeFile(r.pathFor(id)); err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	return nil
}

func (r *DraftRepository) read(path string, id domain.DraftID) (domain.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Draft{}, fmt.Errorf("%s: %w", id, domain.ErrDraftNotFound)
		}
		return domain.Draft{}, fmt.Errorf("read draft %s: %w", id, err)
	}

	var record draftRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.Draft{}, fmt.Errorf("decode draft %s: %w", id, err)
	}

	draft := record.toDomain()
	if draft.ID == "" {
		draft.ID = id
	}
	return draft, nil
}

func (r *DraftRepository) pathFor(id domain.DraftID) string {
	return filepath.Join(r.dir, draftFilePrefix+string(id)+draftFileSuffix)
}

type participantRecord struct {
	ProfileID   string `json:"profileId"`
	ProfileName string `json:"profileName"`
	Character   string `json:"character"`
}

type draftInsightRecord struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

type responseRecord struct {
	participantRecord
	Content string `json:"content"`
	Delay   int64  `json:"delay"`
}

type delayRecord struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type settingsRecord struct {
	MessageDelay delayRecord `json:"messageDelay"`
	MinProfiles  int         `json:"minProfiles"`
	MaxProfiles  int         `json:"maxProfiles"`
	GroupTag     string      `json:"groupTag,omitempty"`
}

type draftRecord struct {
	ID          string             `json:"id"`
	CreatedAt   time.Time          `json:"createdAt"`
	ChatURL     string             `json:"chatUrl"`
	GroupTag    string             `json:"groupTag,omitempty"`
	MainProfile participantRecord  `json:"mainProfile"`
	Insight     draftInsightRecord `json:"insight"`
	Responses   []responseRecord   `json:"responses"`
	Settings    settingsRecord     `json:"settings"`
}

func toParticipantRecord(p domain.Participant) participantRecord {
	return participantRecord{ProfileID: string(p.ProfileID), ProfileName: p.ProfileName, Character: p.Character}
}

func (p participantRecord) toDomain() domain.Participant {
	return domain.Participant{ProfileID: domain.ProfileID(p.ProfileID), ProfileName: p.ProfileName, Character: p.Character}
}

func fromDraft(draft domain.Draft) draftRecord {
	responses := make([]responseRecord, 0, len(draft.Responses))
	for _, response := range draft.Responses {
		responses = append(responses, responseRecord{
			participantRecord: toParticipantRecord(response.Participant),
			Content:           response.Content,
			Delay:             response.Delay.Milliseconds(),
		})
	}

	return draftRecord{
		ID:          string(draft.ID),
		CreatedAt:   draft.CreatedAt.UTC(),
		ChatURL:     draft.ChatTarget,
		GroupTag:    draft.GroupTag,
		MainProfile: toParticipantRecord(draft.MainPoster),
		Insight: draftInsightRecord{
			ID:      string(draft.Insight.ID),
			Content: draft.Insight.Content,
			Images:  append([]string{}, draft.Insight.Images...),
		},
		Responses: responses,
		Settings: settingsRecord{
			MessageDelay: delayRecord{
				Min: draft.Settings.MessageDelay.Min.Milliseconds(),
				Max: draft.Settings.MessageDelay.Max.Milliseconds(),
			},
			MinProfiles: draft.Settings.MinProfiles,
			MaxProfiles: draft.Settings.MaxProfiles,
			GroupTag:    draft.Settings.GroupTag,
		},
	}
}

func (r draftRecord) toDomain() domain.Draft {
	responses := make([]domain.DraftResponse, 0, len(r.Responses))
	for _, response := range r.Responses {
		responses = append(responses, domain.DraftResponse{
			Participant: response.participantRecord.toDomain(),
			Content:     response.Content,
			Delay:       time.Duration(response.Delay) * time.Millisecond,
		})
	}

	var images []string
	if len(r.Insight.Images) > 0 {
		images = append(images, r.Insight.Images...)
	}

	return domain.Draft{
		ID:         domain.DraftID(r.ID),
		CreatedAt:  r.CreatedAt,
		ChatTarget: r.ChatURL,
		GroupTag:   r.GroupTag,
		MainPoster: r.MainProfile.toDomain(),
		Insight: domain.DraftInsight{
			ID:      domain.InsightID(r.Insight.ID),
			Content: r.Insight.Content,
			Images:  images,
		},
		Responses: responses,
		Settings: domain.DiscussionSettings{
			MessageDelay: domain.DelayRange{
				Min: time.Duration(r.Settings.MessageDelay.Min) * time.Millisecond,
				Max: time.Duration(r.Settings.MessageDelay.Max) * time.Millisecond,
			},
			MinProfiles: r.Settings.MinProfiles,
			MaxProfiles: r.Settings.MaxProfiles,
			GroupTag:    r.Settings.GroupTag,
		},
	}
}
