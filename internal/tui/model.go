// Package tui is the terminal client for a local game, built on bubbletea.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/twenty48/game/engine"
)

var keyDirections = map[string]engine.Direction{
	"up": engine.Up, "k": engine.Up, "w": engine.Up,
	"down": engine.Down, "j": engine.Down, "s": engine.Down,
	"left": engine.Left, "h": engine.Left, "a": engine.Left,
	"right": engine.Right, "l": engine.Right, "d": engine.Right,
}

// Model is the bubbletea model for one game.
type Model struct {
	engine   engine.Engine
	best     int
	showHint bool
	status   string
	width    int
	height   int
	quitting bool
}

// New returns a model driving eng.
func New(eng engine.Engine) Model {
	return Model{engine: eng, status: eng.GetState().Message}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "r":
		m.engine.Reset()
		m.status = m.engine.GetState().Message
		return m, nil
	case "?":
		m.showHint = !m.showHint
		return m, nil
	}

	dir, ok := keyDirections[key]
	if !ok || m.engine.IsTerminal() {
		return m, nil
	}
	if _, err := m.engine.Move(dir); err != nil {
		log.Error().Err(err).Str("direction", string(dir)).Msg("move failed")
		m.status = err.Error()
		return m, nil
	}
	m.status = m.engine.GetState().Message
	if score := m.engine.GetScore(); score > m.best {
		m.best = score
	}
	return m, nil
}

// Score returns the current score.
func (m Model) Score() int { return m.engine.GetScore() }

// Best returns the highest score seen since the model was created.
func (m Model) Best() int { return m.best }

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	state := m.engine.GetState()
	var b strings.Builder
	b.WriteString(titleStyle.Render("2048"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Score %d   Best %d   Moves %d\n\n", state.Score, m.best, state.CurrentMovesCount))
	b.WriteString(renderGrid(m.engine.GetGrid()))
	b.WriteString("\n\n")
	if state.GameOver {
		b.WriteString(gameOverStyle.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	if m.showHint && !state.GameOver {
		if dir, ok := engine.BestMove(m.engine.GetGrid()); ok {
			b.WriteString(hintStyle.Render("hint: " + string(dir)))
			b.WriteString("\n")
		}
	}
	b.WriteString(helpStyle.Render("arrows/hjkl/wasd move • r reset • ? hint • q quit"))

	view := b.String()
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
	}
	return view
}

func renderGrid(g engine.Grid) string {
	rows := make([]string, 0, engine.Size)
	for _, row := range g {
		cells := make([]string, 0, engine.Size)
		for _, v := range row {
			cells = append(cells, renderTile(v))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return boardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderTile(v int) string {
	text := ""
	if v != 0 {
		text = strconv.Itoa(v)
	}
	return tileStyle(v).Render(text)
}
