package application

import (
	"context"
	"sort"
	"sync"

	"github.com/bnema/crowdcast/internal/domain"
)

type fakeSettings struct {
	settings domain.DiscussionSettings
	groups   []domain.ChatGroup
}

func (f fakeSettings) DiscussionSettings(context.Context) (domain.DiscussionSettings, error) {
	return f.settings, nil
}

func (f fakeSettings) ChatGroups(context.Context) ([]domain.ChatGroup, error) {
	return f.groups, nil
}

type fakeProfiles struct {
	profiles []domain.Profile
	listed   int
}

func (f *fakeProfiles) GetByID(_ context.Context, id domain.ProfileID) (domain.Profile, error) {
	for _, profile := range f.profiles {
		if profile.ID == id {
			return profile, nil
		}
	}
	return domain.Profile{}, domain.ErrProfileNotFound
}

func (f *fakeProfiles) List(context.Context) ([]domain.Profile, error) {
	f.listed++
	return append([]domain.Profile(nil), f.profiles...), nil
}

func (f *fakeProfiles) Save(_ context.Context, profile domain.Profile) error {
	for i := range f.profiles {
		if f.profiles[i].ID == profile.ID {
			f.profiles[i] = profile
			return nil
		}
	}
	f.profiles = append(f.profiles, profile)
	return nil
}

func (f *fakeProfiles) Delete(_ context.Context, id domain.ProfileID) error {
	kept := f.profiles[:0]
	for _, profile := range f.profiles {
		if profile.ID != id {
			kept = append(kept, profile)
		}
	}
	f.profiles = kept
	return nil
}

type fakeInsights struct {
	mu      sync.Mutex
	items   map[domain.InsightID]domain.Insight
	deleted []domain.InsightID
	touched bool
}

func newFakeInsights(items ...domain.Insight) *fakeInsights {
	f := &fakeInsights{items: map[domain.InsightID]domain.Insight{}}
	for _, item := range items {
		f.items[item.ID] = item
	}
	return f
}

func (f *fakeInsights) RandomID(context.Context) (domain.InsightID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = true
	if len(f.items) == 0 {
		return "", domain.ErrNoInsightsAvailable
	}
	ids := make([]string, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	return domain.InsightID(ids[0]), nil
}

func (f *fakeInsights) GetByID(_ context.Context, id domain.InsightID) (domain.Insight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = true
	item, ok := f.items[id]
	if !ok {
		return domain.Insight{}, domain.ErrInsightNotFound
	}
	return item, nil
}

func (f *fakeInsights) Delete(_ context.Context, id domain.InsightID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeInsights) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items), nil
}

type fakePersonas map[string]domain.Persona

func (f fakePersonas) ByUsername(username string) (domain.Persona, error) {
	persona, ok := f[username]
	if !ok {
		return domain.Persona{}, domain.ErrPersonaNotFound
	}
	return persona, nil
}

func (f fakePersonas) Main() (domain.Persona, error) {
	for _, persona := range f {
		return persona, nil
	}
	return domain.Persona{}, domain.ErrCatalogEmpty
}

func (f fakePersonas) Random(excluding ...string) (domain.Persona, error) {
	skip := map[string]struct{}{}
	for _, username := range excluding {
		skip[username] = struct{}{}
	}
	for username, persona := range f {
		if _, ok := skip[username]; !ok {
			return persona, nil
		}
	}
	return domain.Persona{}, domain.ErrCatalogEmpty
}

type fakeAuthor struct {
	fail map[string]error
}

func (f fakeAuthor) Generate(_ context.Context, persona domain.Persona, sourceText string) (string, error) {
	if err, ok := f.fail[persona.Username]; ok {
		return "", &domain.ResponseGenerationError{Persona: persona.Username, Err: err}
	}
	return "reply from " + persona.Username, nil
}

type fakeDrafts struct {
	drafts  map[domain.DraftID]domain.Draft
	deleted []domain.DraftID
}

func newFakeDrafts(drafts ...domain.Draft) *fakeDrafts {
	f := &fakeDrafts{drafts: map[domain.DraftID]domain.Draft{}}
	for _, draft := range drafts {
		f.drafts[draft.ID] = draft
	}
	return f
}

func (f *fakeDrafts) Save(_ context.Context, draft domain.Draft) error {
	if _, ok := f.drafts[draft.ID]; ok {
		return domain.ErrDraftExists
	}
	f.drafts[draft.ID] = draft
	return nil
}

func (f *fakeDrafts) GetByID(_ context.Context, id domain.DraftID) (domain.Draft, error) {
	draft, ok := f.drafts[id]
	if !ok {
		return domain.Draft{}, domain.ErrDraftNotFound
	}
	return draft, nil
}

func (f *fakeDrafts) List(context.Context) ([]domain.DraftSummary, error) {
	summaries := make([]domain.DraftSummary, 0, len(f.drafts))
	for _, draft := range f.drafts {
		summaries = append(summaries, draft.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (f *fakeDrafts) Delete(_ context.Context, id domain.DraftID) error {
	delete(f.drafts, id)
	f.deleted = append(f.deleted, id)
	return nil
}
