package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

func main() {
	mark := flag.String("mark", "X", "Your mark, X moves first")
	delay := flag.Duration("delay", 300*time.Millisecond, "How long the adversary waits before answering")
	flag.Parse()

	human, err := entity.ParseMark(*mark)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	m := newModel(human, *delay, termenv.ColorProfile())

	if _, err = tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "play: %v\n", err)
		os.Exit(1)
	}
}
