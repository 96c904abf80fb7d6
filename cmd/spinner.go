package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/crowdcast/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type workDoneMsg struct {
	err error
}

type planProgressMsg application.PlanProgress

type spinnerModel struct {
	spinner    spinner.Model
	labelStyle lipgloss.Style
	label      string
	work       tea.Cmd
	err        error
	done       bool
}

func newSpinnerModel(label string, work tea.Cmd) spinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return spinnerModel{
		spinner:    s,
		labelStyle: lipgloss.NewStyle().Faint(true),
		label:      label,
		work:       work,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case planProgressMsg:
		m.label = planStageLabel(application.PlanProgress(msg))
		return m, nil
	case workDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.labelStyle.Render(m.label))
}

func planStageLabel(progress application.PlanProgress) string {
	switch progress.Stage {
	case application.PlanStageSelecting:
		return "Selecting chat target and participants..."
	case application.PlanStageGenerating:
		if progress.Character == "" {
			return fmt.Sprintf("Generating responses %d/%d...", progress.Done+1, progress.Total)
		}
		return fmt.Sprintf("Generating responses %d/%d (%s)...", progress.Done+1, progress.Total, progress.Character)
	case application.PlanStageSaving:
		return "Saving draft..."
	default:
		return "Planning discussion..."
	}
}

// runPlanWithSpinner shows the planner's current stage on output until work returns.
func runPlanWithSpinner(ctx context.Context, output io.Writer, work func(context.Context, func(application.PlanProgress)) error) error {
	var p *tea.Program
	report := func(progress application.PlanProgress) {
		p.Send(planProgressMsg(progress))
	}
	workCmd := func() tea.Msg {
		return workDoneMsg{err: work(ctx, report)}
	}

	p = tea.NewProgram(
		newSpinnerModel(planStageLabel(application.PlanProgress{}), workCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(spinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
