package ui

import "github.com/charmbracelet/lipgloss"

// Icon constants
const (
	BombIcon  = "💣"
	HeartIcon = "❤️"
	DeadIcon  = "💀"
	CrownIcon = "👑"
	PlugIcon  = "🔌"
)

// Lipgloss Styles
var (
	docStyle      = lipgloss.NewStyle().Margin(1, 2)
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	currentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	chatStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)
