package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary   = lipgloss.Color("45")
	secondary = lipgloss.Color("141")
	muted     = lipgloss.Color("241")
	danger    = lipgloss.Color("196")
	warning   = lipgloss.Color("214")
	success   = lipgloss.Color("42")

	titleStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true)

	crumbStyle = lipgloss.NewStyle().
			Foreground(secondary)

	mutedStyle = lipgloss.NewStyle().
			Foreground(muted)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Bold(true)

	folderStyle = lipgloss.NewStyle().
			Foreground(primary)

	errorStyle = lipgloss.NewStyle().
			Foreground(danger)

	warningStyle = lipgloss.NewStyle().
			Foreground(warning)

	successStyle = lipgloss.NewStyle().
			Foreground(success)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary).
			Padding(1, 2)

	dangerModalStyle = modalStyle.
				BorderForeground(danger)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(muted).
			PaddingLeft(1)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("236"))

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(primary).
				Bold(true)
)
