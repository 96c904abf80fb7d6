package drafts

import (
	"errors"
	"io"

	"github.com/bnema/crowdcast/internal/application"
	"github.com/bnema/crowdcast/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type viewFunc func(styles) string

type model struct {
	view   viewFunc
	styles styles
	output string
}

func newModel(view viewFunc) model {
	return model{view: view, styles: newStyles()}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = m.view(m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func run(view viewFunc) (string, error) {
	p := tea.NewProgram(
		newModel(view),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}

func RenderList(summaries []domain.DraftSummary, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return renderList(summaries, opts, s) })
}

func RenderDraft(draft domain.Draft, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return renderDraft(draft, opts, s) })
}

func RenderPlan(result application.PlanResult, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return renderPlan(result, opts, s) })
}

func RenderPublish(result application.PublishResult) (string, error) {
	return run(func(s styles) string { return renderPublish(result, s) })
}
