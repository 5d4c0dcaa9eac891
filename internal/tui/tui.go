package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/trakr/internal/ledger"
	"github.com/balkashynov/trakr/internal/models"
	"github.com/balkashynov/trakr/internal/timeutil"
)

var logoLines = []string{
	"████████╗██████╗  █████╗ ██╗  ██╗██████╗ ",
	"╚══██╔══╝██╔══██╗██╔══██╗██║ ██╔╝██╔══██╗",
	"   ██║   ██████╔╝███████║█████╔╝ ██████╔╝",
	"   ██║   ██╔══██╗██╔══██║██╔═██╗ ██╔══██╗",
	"   ██║   ██║  ██║██║  ██║██║  ██╗██║  ██║",
	"   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝",
}

// Timekeeper is the part of the ledger the timer needs
type Timekeeper interface {
	LineSource
	StopSession(ctx context.Context, lineID uint) (*models.Session, error)
}

// RunTimerTUI shows the live timer for line until the user stops or leaves it
func RunTimerTUI(ctx context.Context, tk Timekeeper, tracker string, line *models.Line) error {
	model := NewTimerModel(tk, tracker, *line)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	timerModel := finalModel.(TimerModel)
	switch {
	case timerModel.stopping:
		stopped, err := tk.StopSession(ctx, line.ID)
		if err != nil {
			return fmt.Errorf("failed to stop session: %w", err)
		}

		fresh, err := tk.GetLine(ctx, line.ID)
		if err != nil {
			return err
		}

		fmt.Printf("⏹️  Stopped tracking line #%d: %s\n", line.ID, line.Desc)
		fmt.Printf("📊 Session duration: %s · line total: %s\n",
			timeutil.Compact(stopped.Elapsed(*stopped.EndedAt)),
			timeutil.Compact(ledger.ClosedTotal(*fresh)))

	case timerModel.closedOutside:
		fmt.Printf("⏹️  Line #%d was stopped elsewhere. Total: %s\n",
			line.ID, timeutil.Compact(timerModel.total))

	case timerModel.exiting:
		fmt.Printf("\n💡 Timer is still running in the background for line #%d: %s\n", line.ID, line.Desc)
		fmt.Printf("   Use 'trakr status' to check it or 'trakr stop %d' to stop it.\n", line.ID)
	}

	return nil
}

// RunPromptTUI asks for a line description. ok is false if the user
// cancelled.
func RunPromptTUI(tracker string) (desc string, ok bool, err error) {
	p := tea.NewProgram(NewPromptModel(tracker), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return "", false, err
	}

	desc, ok = finalModel.(PromptModel).Value()
	return desc, ok, nil
}
