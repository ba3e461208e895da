package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/service"
)

type botTurnMsg struct{}

type model struct {
	game    *entity.Game
	bot     service.BotService
	delay   time.Duration
	profile termenv.Profile

	cursor   int
	showHint bool
	hint     map[int]int
	status   string
}

func newModel(humanMark entity.Mark, delay time.Duration, profile termenv.Profile) model {
	return model{
		game:    entity.NewGame("local", humanMark),
		bot:     service.NewBotService(),
		delay:   delay,
		profile: profile,
		cursor:  4,
	}
}

func (m model) Init() tea.Cmd {
	return m.scheduleBot()
}

func (m model) scheduleBot() tea.Cmd {
	if !m.game.IsBotTurn() {
		return nil
	}

	return tea.Tick(m.delay, func(time.Time) tea.Msg {
		return botTurnMsg{}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case botTurnMsg:
		// stale after a jump or restart
		if !m.game.IsBotTurn() {
			return m, nil
		}

		if _, err := m.bot.MakeTurn(m.game); err != nil {
			m.status = err.Error()
		}

		return m.refresh(), nil
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}

	return m, nil
}

func (m model) handleKey(key string) (tea.Model, tea.Cmd) {
	m.status = ""

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up":
		m.cursor = (m.cursor + 6) % entity.BoardSize
	case "down":
		m.cursor = (m.cursor + 3) % entity.BoardSize
	case "left":
		m.cursor = m.cursor/3*3 + (m.cursor+2)%3
	case "right":
		m.cursor = m.cursor/3*3 + (m.cursor+1)%3
	case "enter", " ":
		return m.play(m.cursor)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.cursor = int(key[0] - '1')
		return m.play(m.cursor)
	case "[":
		return m.jump(m.game.Step - 1)
	case "]":
		return m.jump(m.game.Step + 1)
	case "r":
		m.game.Restart()
		return m.refresh(), m.scheduleBot()
	case "h":
		m.showHint = !m.showHint
		return m.refresh(), nil
	}

	return m, nil
}

func (m model) play(cell int) (tea.Model, tea.Cmd) {
	if err := m.game.MakeTurn(m.game.HumanMark, cell); err != nil {
		m.status = err.Error()
		return m, nil
	}

	return m.refresh(), m.scheduleBot()
}

func (m model) jump(step int) (tea.Model, tea.Cmd) {
	if err := m.game.JumpTo(step); err != nil {
		m.status = err.Error()
		return m, nil
	}

	return m.refresh(), m.scheduleBot()
}

// refresh - recomputes the hint overlay for the current board.
func (m model) refresh() model {
	m.hint = nil
	if !m.showHint || !m.game.IsHumanTurn() {
		return m
	}

	scores, err := minimax.Analyze(m.game.Current(), m.game.HumanMark)
	if err != nil {
		return m
	}

	m.hint = make(map[int]int, len(scores))
	for _, score := range scores {
		m.hint[score.Cell] = score.Value
	}

	return m
}

func (m model) View() string {
	var b strings.Builder

	board := m.game.Current()
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			cells[col] = m.renderCell(board, row*3+col)
		}

		b.WriteString(" " + strings.Join(cells, " | ") + "\n")
		if row < 2 {
			b.WriteString("-----+-----+-----\n")
		}
	}

	b.WriteString("\n" + m.statusLine(board) + "\n")
	if m.status != "" {
		b.WriteString(m.profile.String(m.status).Foreground(m.profile.Color("1")).String() + "\n")
	}

	b.WriteString("\n")
	for step := range m.game.History {
		desc := "Go to game start"
		if step > 0 {
			desc = fmt.Sprintf("Go to move #%d", step)
		}

		if step == m.game.Step {
			b.WriteString(m.profile.String("> " + desc).Bold().String() + "\n")
			continue
		}
		b.WriteString("  " + desc + "\n")
	}

	b.WriteString("\narrows/1-9 move, enter play, [ ] history, r restart, h hint, q quit\n")

	return b.String()
}

func (m model) renderCell(board entity.Board, cell int) string {
	text := "   "
	style := m.profile.String()

	switch board[cell] {
	case entity.PlayerX:
		text = " X "
		style = style.Foreground(m.profile.Color("4")).Bold()
	case entity.PlayerO:
		text = " O "
		style = style.Foreground(m.profile.Color("3")).Bold()
	default:
		if value, ok := m.hint[cell]; ok {
			text = fmt.Sprintf("%3d", value)
			style = style.Faint()
		}
	}

	if cell == m.cursor {
		style = style.Reverse()
	}

	return style.Styled(text)
}

func (m model) statusLine(board entity.Board) string {
	outcome := board.Outcome()
	if outcome.IsOver() {
		return outcome.String()
	}

	turn := "you"
	if m.game.IsBotTurn() {
		turn = "thinking"
	}

	return fmt.Sprintf("Next player: %s (%s)", board.SideToMove(), turn)
}
