package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent    = lipgloss.Color("#E07A5F")
	primary   = lipgloss.Color("#F4F1DE")
	secondary = lipgloss.Color("#A8A8A8")
	dim       = lipgloss.Color("#5C5C5C")
	danger    = lipgloss.Color("#D1495B")
)

type styleSet struct {
	Title     lipgloss.Style
	Caption   lipgloss.Style
	Percent   lipgloss.Style
	Hint      lipgloss.Style
	Dialog    lipgloss.Style
	DialogTtl lipgloss.Style
	Button    lipgloss.Style
	ButtonOn  lipgloss.Style
}

func newStyleSet() styleSet {
	button := lipgloss.NewStyle().Foreground(secondary).Padding(0, 2)
	return styleSet{
		Title:     lipgloss.NewStyle().Foreground(accent).Bold(true),
		Caption:   lipgloss.NewStyle().Foreground(secondary),
		Percent:   lipgloss.NewStyle().Foreground(primary).Bold(true),
		Hint:      lipgloss.NewStyle().Foreground(dim),
		DialogTtl: lipgloss.NewStyle().Foreground(danger).Bold(true),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(danger).
			Padding(1, 2),
		Button:   button,
		ButtonOn: button.Foreground(primary).Background(accent).Bold(true),
	}
}
