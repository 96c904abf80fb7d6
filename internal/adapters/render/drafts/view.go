package drafts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/crowdcast/internal/application"
	"github.com/bnema/crowdcast/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const previewWidth = 72

type RenderOptions struct {
	Now time.Time
}

func renderList(summaries []domain.DraftSummary, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Discussion drafts"),
		s.header.Render(fmt.Sprintf("drafts: %d", len(summaries))),
	}

	if len(summaries) == 0 {
		lines = append(lines, s.empty.Render("No drafts saved."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, summary := range summaries {
		entry := lipgloss.JoinVertical(
			lipgloss.Left,
			s.draft.Render(string(summary.ID)),
			field(s, "created", formatCreated(summary.CreatedAt, opts.Now)),
			field(s, "chat", summary.ChatTarget),
			field(s, "main", participantLabel(summary.MainPoster)),
			field(s, "responses", fmt.Sprintf("%d", summary.ResponsesCount)),
		)
		lines = append(lines, s.section.Render(entry))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderDraft(draft domain.Draft, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Draft " + string(draft.ID)),
		field(s, "created", formatCreated(draft.CreatedAt, opts.Now)),
		field(s, "chat", draft.ChatTarget),
		field(s, "group", valueOrNone(draft.GroupTag)),
		field(s, "delay", fmt.Sprintf("%s..%s", formatDelay(draft.Settings.MessageDelay.Min), formatDelay(draft.Settings.MessageDelay.Max))),
	}

	insight := []string{
		s.draft.Render(participantLabel(draft.MainPoster)),
		field(s, "insight", string(draft.Insight.ID)),
		s.content.Render(preview(draft.Insight.Content)),
	}
	if len(draft.Insight.Images) > 0 {
		insight = append(insight, field(s, "images", strings.Join(draft.Insight.Images, ", ")))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, insight...)))

	if len(draft.Responses) == 0 {
		lines = append(lines, s.section.Render(s.empty.Render("No responses.")))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	responses := make([]string, 0, len(draft.Responses))
	for _, response := range draft.Responses {
		responses = append(responses, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.delay.Render(fmt.Sprintf("+%-6s", formatDelay(response.Delay))),
			" ",
			s.key.Render(participantLabel(response.Participant)+":"),
			" ",
			s.content.Render(response.Content),
		))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, responses...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPlan(result application.PlanResult, opts RenderOptions, s styles) string {
	draft := result.Draft
	lines := []string{
		s.success.Render("Draft saved"),
		field(s, "id", string(draft.ID)),
		field(s, "chat", draft.ChatTarget),
		field(s, "main", participantLabel(draft.MainPoster)),
		field(s, "responses", fmt.Sprintf("%d", len(draft.Responses))),
	}
	if len(result.Skipped) > 0 {
		skipped := make([]string, 0, len(result.Skipped))
		for _, id := range result.Skipped {
			skipped = append(skipped, string(id))
		}
		lines = append(lines, s.warning.Render("skipped: "+strings.Join(skipped, ", ")))
	}
	if !result.InsightConsumed {
		lines = append(lines, s.metaText.Render(fmt.Sprintf("insight %s kept until publish", draft.Insight.ID)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPublish(result application.PublishResult, s styles) string {
	title := "Discussion published"
	if result.DryRun {
		title = "Dry run"
	}

	lines := []string{
		s.title.Render(title),
		field(s, "draft", string(result.DraftID)),
		field(s, "delivered", fmt.Sprintf("%d/%d", result.Delivered(), len(result.Responses))),
	}

	for _, outcome := range result.Responses {
		if outcome.Err == nil {
			continue
		}
		lines = append(lines, s.warning.Render(fmt.Sprintf("failed %s: %v", outcome.ProfileID, outcome.Err)))
	}
	if result.CleanupErr != nil {
		lines = append(lines, s.warning.Render(fmt.Sprintf("cleanup: %v", result.CleanupErr)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func field(s styles, key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render(key+":"), " ", s.detail.Render(value))
}

func participantLabel(p domain.Participant) string {
	name := strings.TrimSpace(p.ProfileName)
	if name == "" || name == string(p.ProfileID) {
		return fmt.Sprintf("%s [%s]", p.ProfileID, p.Character)
	}
	return fmt.Sprintf("%s (%s) [%s]", name, p.ProfileID, p.Character)
}

func valueOrNone(v string) string {
	if strings.TrimSpace(v) == "" {
		return "none"
	}
	return v
}

func preview(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= previewWidth {
		return content
	}
	return string(runes[:previewWidth-3]) + "..."
}

func formatDelay(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatCreated(createdAt, now time.Time) string {
	if createdAt.IsZero() {
		return "unknown"
	}
	if now.IsZero() || createdAt.After(now) {
		return createdAt.Format(time.RFC3339)
	}

	age := now.Sub(createdAt)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return plural(int(age.Minutes()), "minute") + " ago"
	case age < 24*time.Hour:
		return plural(int(age.Hours()), "hour") + " ago"
	default:
		return plural(int(math.Floor(age.Hours()/24)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
