package drafts

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	draft    lipgloss.Style
	detail   lipgloss.Style
	key      lipgloss.Style
	content  lipgloss.Style
	delay    lipgloss.Style
	success  lipgloss.Style
	warning  lipgloss.Style
	section  lipgloss.Style
	empty    lipgloss.Style
	metaText lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		draft:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		key:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		content:  lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		delay:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		success:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:  lipgloss.NewStyle().MarginTop(1),
		empty:    lipgloss.NewStyle().Faint(true),
		metaText: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}
