package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#776e65"))
	gameOverStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f65e3b"))
	hintStyle     = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#8f7a66"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
	boardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#bbada0"))

	baseTile = lipgloss.NewStyle().Width(6).Height(1).Align(lipgloss.Center).Bold(true)
)

// Classic tile colours. Tiles above 2048 share the last one.
var tileColors = map[int][2]string{
	0:    {"#cdc1b4", "#cdc1b4"},
	2:    {"#eee4da", "#776e65"},
	4:    {"#ede0c8", "#776e65"},
	8:    {"#f2b179", "#f9f6f2"},
	16:   {"#f59563", "#f9f6f2"},
	32:   {"#f67c5f", "#f9f6f2"},
	64:   {"#f65e3b", "#f9f6f2"},
	128:  {"#edcf72", "#f9f6f2"},
	256:  {"#edcc61", "#f9f6f2"},
	512:  {"#edc850", "#f9f6f2"},
	1024: {"#edc53f", "#f9f6f2"},
	2048: {"#edc22e", "#f9f6f2"},
}

func tileStyle(v int) lipgloss.Style {
	c, ok := tileColors[v]
	if !ok {
		c = [2]string{"#3c3a32", "#f9f6f2"}
	}
	return baseTile.Background(lipgloss.Color(c[0])).Foreground(lipgloss.Color(c[1]))
}
