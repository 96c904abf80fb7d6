package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type DraftID string

const (
	defaultMinProfiles = 1
	defaultMaxProfiles = 3
)

type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

type DiscussionSettings struct {
	MessageDelay DelayRange
	MinProfiles  int
	MaxProfiles  int
	GroupTag     string
}

// WithDefaults fills the participant bounds the same way older settings files expect.
func (s DiscussionSettings) WithDefaults() DiscussionSettings {
	if s.MinProfiles == 0 {
		s.MinProfiles = defaultMinProfiles
	}
	if s.MaxProfiles == 0 {
		s.MaxProfiles = defaultMaxProfiles
	}
	return s
}

func (s DiscussionSettings) Validate() error {
	if s.MessageDelay.Min < 0 || s.MessageDelay.Max < 0 {
		return fmt.Errorf("message delay must not be negative")
	}
	if s.MessageDelay.Min > s.MessageDelay.Max {
		return fmt.Errorf("message delay min %s exceeds max %s", s.MessageDelay.Min, s.MessageDelay.Max)
	}
	if s.MinProfiles < 0 || s.MaxProfiles < 0 {
		return fmt.Errorf("profile bounds must not be negative")
	}
	if s.MinProfiles > s.MaxProfiles {
		return fmt.Errorf("min profiles %d exceeds max profiles %d", s.MinProfiles, s.MaxProfiles)
	}

	return nil
}

type ChatGroup struct {
	GroupTag string
	ChatURLs []string
}

// FindGroup resolves a group by tag, ignoring case.
func FindGroup(groups []ChatGroup, tag string) (ChatGroup, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ChatGroup{}, fmt.Errorf("group tag is required: %w", ErrGroupNotFound)
	}
	for _, group := range groups {
		if strings.EqualFold(strings.TrimSpace(group.GroupTag), tag) {
			return group, nil
		}
	}
	return ChatGroup{}, fmt.Errorf("%q: %w", tag, ErrGroupNotFound)
}

type Participant struct {
	ProfileID   ProfileID
	ProfileName string
	Character   string
}

type DraftInsight struct {
	ID      InsightID
	Content string
	Images  []string
}

type DraftResponse struct {
	Participant
	Content string
	Delay   time.Duration
}

type Draft struct {
	ID         DraftID
	CreatedAt  time.Time
	ChatTarget string
	GroupTag   string
	MainPoster Participant
	Insight    DraftInsight
	Responses  []DraftResponse
	Settings   DiscussionSettings
}

func SortResponsesByDelay(responses []DraftResponse) {
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].Delay < responses[j].Delay
	})
}

type DraftSummary struct {
	ID             DraftID
	CreatedAt      time.Time
	ChatTarget     string
	MainPoster     Participant
	ResponsesCount int
}

func (d Draft) Summary() DraftSummary {
	return DraftSummary{
		ID:             d.ID,
		CreatedAt:      d.CreatedAt,
		ChatTarget:     d.ChatTarget,
		MainPoster:     d.MainPoster,
		ResponsesCount: len(d.Responses),
	}
}
