package application

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultInsiderCharacter = "ALPHA_INSIDER"

// Randomizer is satisfied by *rand.Rand from math/rand/v2.
type Randomizer interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

type globalRand struct{}

func (globalRand) IntN(n int) int                     { return rand.IntN(n) }
func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

type ResponseAuthor interface {
	Generate(ctx context.Context, persona domain.Persona, sourceText string) (string, error)
}

type PlanRequest struct {
	InsightID  domain.InsightID
	ProfileIDs []domain.ProfileID
	GroupTag   string
	// Progress, when set, is called synchronously as planning moves between stages.
	Progress func(PlanProgress)
}

type PlanStage string

const (
	PlanStageSelecting  PlanStage = "selecting"
	PlanStageGenerating PlanStage = "generating"
	PlanStageSaving     PlanStage = "saving"
)

// PlanProgress describes the stage planning is in. Done and Total count
// responders during PlanStageGenerating; Character is the persona being voiced.
type PlanProgress struct {
	Stage     PlanStage
	Done      int
	Total     int
	Character string
}

type PlanResult struct {
	Draft   domain.Draft
	Skipped []domain.ProfileID
	// InsightConsumed is false when the insight was left for the publisher to delete.
	InsightConsumed bool
}

type PlannerConfig struct {
	InsiderCharacter string
	ConsumeOnPlan    bool
}

type Planner struct {
	settings ports.SettingsSource
	profiles ports.ProfileRepository
	insights ports.InsightRepository
	personas ports.PersonaCatalog
	author   ResponseAuthor
	drafts   ports.DraftRepository
	clock    ports.Clock
	rng      Randomizer
	logger   *zap.Logger
	cfg      PlannerConfig
	newID    func() domain.DraftID
}

type PlannerOption func(*Planner)

func WithPlannerLogger(logger *zap.Logger) PlannerOption {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger.Named("planner")
		}
	}
}

func WithPlannerRandomizer(rng Randomizer) PlannerOption {
	return func(p *Planner) {
		if rng != nil {
			p.rng = rng
		}
	}
}

func WithPlannerClock(clock ports.Clock) PlannerOption {
	return func(p *Planner) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func WithDraftIDGenerator(newID func() domain.DraftID) PlannerOption {
	return func(p *Planner) {
		if newID != nil {
			p.newID = newID
		}
	}
}

func NewPlanner(
	settings ports.SettingsSource,
	profiles ports.ProfileRepository,
	insights ports.InsightRepository,
	personas ports.PersonaCatalog,
	author ResponseAuthor,
	drafts ports.DraftRepository,
	cfg PlannerConfig,
	opts ...PlannerOption,
) *Planner {
	if strings.TrimSpace(cfg.InsiderCharacter) == "" {
		cfg.InsiderCharacter = DefaultInsiderCharacter
	}

	p := &Planner{
		settings: settings,
		profiles: profiles,
		insights: insights,
		personas: personas,
		author:   author,
		drafts:   drafts,
		clock:    ports.SystemClock{},
		rng:      globalRand{},
		logger:   zap.NewNop(),
		cfg:      cfg,
		newID:    newDraftID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func newDraftID() domain.DraftID {
	return domain.DraftID(uuid.NewString())
}

func (p *Planner) Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	if err := ctx.Err(); err != nil {
		return PlanResult{}, err
	}

	settings, err := p.settings.DiscussionSettings(ctx)
	if err != nil {
		return PlanResult{}, fmt.Errorf("load discussion settings: %w", err)
	}
	settings = settings.WithDefaults()
	if groupTag := strings.TrimSpace(req.GroupTag); groupTag != "" {
		settings.GroupTag = groupTag
	}
	if err := settings.Validate(); err != nil {
		return PlanResult{}, fmt.Errorf("validate discussion settings: %w", err)
	}

	report := req.Progress
	if report == nil {
		report = func(PlanProgress) {}
	}
	report(PlanProgress{Stage: PlanStageSelecting})

	chatTarget, err := p.selectChatTarget(ctx, settings.GroupTag)
	if err != nil {
		return PlanResult{}, err
	}

	insight, err := p.selectInsight(ctx, req.InsightID)
	if err != nil {
		return PlanResult{}, err
	}

	profiles, err := p.profiles.List(ctx)
	if err != nil {
		return PlanResult{}, fmt.Errorf("list profiles: %w", err)
	}

	mainProfile, err := p.selectMainProfile(profiles, settings.GroupTag)
	if err != nil {
		return PlanResult{}, err
	}

	candidates, err := p.selectResponderPool(profiles, mainProfile, req.ProfileIDs, settings.GroupTag)
	if err != nil {
		return PlanResult{}, err
	}

	responders := p.pickResponders(candidates, settings.MinProfiles, settings.MaxProfiles)

	responses, skipped := p.generateResponses(ctx, responders, insight, report)
	if err := ctx.Err(); err != nil {
		return PlanResult{}, err
	}

	for i := range responses {
		responses[i].Delay = p.randomDelay(settings.MessageDelay)
	}
	domain.SortResponsesByDelay(responses)

	draft := domain.Draft{
		ID:         p.newID(),
		CreatedAt:  p.clock.Now().UTC(),
		ChatTarget: chatTarget,
		GroupTag:   settings.GroupTag,
		MainPoster: participantFor(mainProfile),
		Insight: domain.DraftInsight{
			ID:      insight.ID,
			Content: insight.Content,
			Images:  append([]string(nil), insight.Images...),
		},
		Responses: responses,
		Settings:  settings,
	}

	report(PlanProgress{Stage: PlanStageSaving, Done: len(responders), Total: len(responders)})
	if err := p.drafts.Save(ctx, draft); err != nil {
		return PlanResult{}, fmt.Errorf("save draft: %w", err)
	}
	p.logger.Info("draft saved",
		zap.String("draft_id", string(draft.ID)),
		zap.String("insight_id", string(insight.ID)),
		zap.String("main_profile", string(mainProfile.ID)),
		zap.Int("responses", len(responses)),
		zap.Int("skipped", len(skipped)),
	)

	result := PlanResult{Draft: draft, Skipped: skipped}
	if p.cfg.ConsumeOnPlan {
		if err := p.insights.Delete(ctx, insight.ID); err != nil {
			p.logger.Warn("consume insight after plan failed; publisher will retry",
				zap.String("insight_id", string(insight.ID)),
				zap.Error(err),
			)
		} else {
			result.InsightConsumed = true
		}
	}

	return result, nil
}

func (p *Planner) selectChatTarget(ctx context.Context, groupTag string) (string, error) {
	groups, err := p.settings.ChatGroups(ctx)
	if err != nil {
		return "", fmt.Errorf("load chat groups: %w", err)
	}

	group, err := domain.FindGroup(groups, groupTag)
	if err != nil {
		return "", fmt.Errorf("select chat target: %w", err)
	}

	urls := make([]string, 0, len(group.ChatURLs))
	for _, url := range group.ChatURLs {
		if url = strings.TrimSpace(url); url != "" {
			urls = append(urls, url)
		}
	}
	if len(urls) == 0 {
		return "", fmt.Errorf("select chat target for group %q: %w", group.GroupTag, domain.ErrNoTargetsInGroup)
	}

	return urls[p.rng.IntN(len(urls))], nil
}

func (p *Planner) selectInsight(ctx context.Context, id domain.InsightID) (domain.Insight, error) {
	if strings.TrimSpace(string(id)) == "" {
		randomID, err := p.insights.RandomID(ctx)
		if err != nil {
			return domain.Insight{}, fmt.Errorf("select random insight: %w", err)
		}
		id = randomID
	}

	insight, err := p.insights.GetByID(ctx, id)
	if err != nil {
		return domain.Insight{}, fmt.Errorf("get insight %s: %w", id, err)
	}
	return insight, nil
}

func (p *Planner) isInsider(profile domain.Profile) bool {
	return strings.EqualFold(strings.TrimSpace(profile.Character), p.cfg.InsiderCharacter)
}

func (p *Planner) selectMainProfile(profiles []domain.Profile, groupTag string) (domain.Profile, error) {
	if len(profiles) == 0 {
		return domain.Profile{}, domain.ErrNoAvailableProfiles
	}

	if groupTag != "" {
		for _, profile := range profiles {
			if p.isInsider(profile) && profile.HasTag(groupTag) {
				p.logger.Info("main profile selected",
					zap.String("strategy", "insider_in_group"),
					zap.String("profile_id", string(profile.ID)),
					zap.String("group_tag", groupTag),
				)
				return profile, nil
			}
		}
	}

	for _, profile := range profiles {
		if p.isInsider(profile) {
			p.logger.Info("main profile selected",
				zap.String("strategy", "any_insider"),
				zap.String("profile_id", string(profile.ID)),
				zap.String("group_tag", groupTag),
			)
			return profile, nil
		}
	}

	p.logger.Warn("no insider profile found, using first profile",
		zap.String("strategy", "first_profile"),
		zap.String("profile_id", string(profiles[0].ID)),
		zap.String("insider_character", p.cfg.InsiderCharacter),
	)
	return profiles[0], nil
}

func (p *Planner) selectResponderPool(profiles []domain.Profile, mainProfile domain.Profile, allowlist []domain.ProfileID, groupTag string) ([]domain.Profile, error) {
	nonMain := make([]domain.Profile, 0, len(profiles))
	for _, profile := range profiles {
		if profile.ID != mainProfile.ID {
			nonMain = append(nonMain, profile)
		}
	}

	var candidates []domain.Profile
	switch {
	case len(allowlist) > 0:
		byID := make(map[domain.ProfileID]domain.Profile, len(nonMain))
		for _, profile := range nonMain {
			byID[profile.ID] = profile
		}
		seen := make(map[domain.ProfileID]struct{}, len(allowlist))
		for _, id := range allowlist {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			profile, ok := byID[id]
			if !ok {
				p.logger.Warn("requested responder not available",
					zap.String("profile_id", string(id)),
					zap.Bool("is_main", id == mainProfile.ID),
				)
				continue
			}
			candidates = append(candidates, profile)
		}
	default:
		// groupTag is never empty here: chat target selection already rejected it.
		candidates = domain.FilterProfiles(nonMain, domain.ProfileFilter{Tag: groupTag})
		if len(candidates) == 0 {
			p.logger.Warn("no responders tagged for group, using all profiles",
				zap.String("group_tag", groupTag),
				zap.Int("candidates", len(nonMain)),
			)
			candidates = nonMain
		}
	}

	if len(candidates) == 0 {
		return nil, domain.ErrNoResponderProfiles
	}
	return candidates, nil
}

func (p *Planner) pickResponders(candidates []domain.Profile, minProfiles, maxProfiles int) []domain.Profile {
	count := minProfiles + p.rng.IntN(maxProfiles-minProfiles+1)
	if count > len(candidates) {
		count = len(candidates)
	}

	shuffled := append([]domain.Profile(nil), candidates...)
	p.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:count]
}

func (p *Planner) generateResponses(ctx context.Context, responders []domain.Profile, insight domain.Insight, report func(PlanProgress)) ([]domain.DraftResponse, []domain.ProfileID) {
	responses := make([]domain.DraftResponse, 0, len(responders))
	var skipped []domain.ProfileID

	for i, responder := range responders {
		if ctx.Err() != nil {
			break
		}
		report(PlanProgress{Stage: PlanStageGenerating, Done: i, Total: len(responders), Character: responder.Character})

		persona, err := p.personas.ByUsername(responder.Character)
		if err != nil {
			p.logger.Warn("skip responder: persona unavailable",
				zap.String("profile_id", string(responder.ID)),
				zap.String("character", responder.Character),
				zap.Error(err),
			)
			skipped = append(skipped, responder.ID)
			continue
		}

		content, err := p.author.Generate(ctx, persona, insight.Content)
		if err != nil {
			p.logger.Warn("skip responder: generation failed",
				zap.String("profile_id", string(responder.ID)),
				zap.String("character", responder.Character),
				zap.Error(err),
			)
			skipped = append(skipped, responder.ID)
			continue
		}
		if strings.TrimSpace(content) == "" {
			p.logger.Warn("skip responder: empty response",
				zap.String("profile_id", string(responder.ID)),
			)
			skipped = append(skipped, responder.ID)
			continue
		}

		responses = append(responses, domain.DraftResponse{
			Participant: participantFor(responder),
			Content:     content,
		})
	}

	return responses, skipped
}

func (p *Planner) randomDelay(delay domain.DelayRange) time.Duration {
	spanMillis := int((delay.Max - delay.Min) / time.Millisecond)
	if spanMillis <= 0 {
		return delay.Min
	}
	return delay.Min + time.Duration(p.rng.IntN(spanMillis))*time.Millisecond
}

func participantFor(profile domain.Profile) domain.Participant {
	return domain.Participant{
		ProfileID:   profile.ID,
		ProfileName: profile.DisplayName(),
		Character:   profile.Character,
	}
}
