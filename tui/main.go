package main

import (
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/yeseung/omok-extension/game"
)

var spinners = []string{"|", "/", "-", "\\"}

type ui struct {
	app    *tview.Application
	table  *tview.Table
	info   *tview.TextView
	board  *game.Board
	ai     *game.Evaluator
	delay  time.Duration
	wins   int
	losses int

	thinking int32
}

func main() {
	size := flag.Int("size", game.DefaultBoardSize, "board size")
	delay := flag.Duration("delay", 500*time.Millisecond, "pause before the AI replies")
	flag.Parse()

	board, err := game.NewBoard(*size)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	u := newUI(board, game.NewEvaluator(game.WithSide(game.PlayerWhite)), *delay)
	if err := u.app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newUI(board *game.Board, ai *game.Evaluator, delay time.Duration) *ui {
	u := &ui{
		app:   tview.NewApplication(),
		table: tview.NewTable(),
		info:  tview.NewTextView(),
		board: board,
		ai:    ai,
		delay: delay,
	}

	u.table.SetSelectable(true, true)
	u.table.SetBorder(true)
	u.table.SetTitleAlign(tview.AlignLeft)
	u.table.SetBorderColor(tcell.ColorGreen)
	u.table.SetTitleColor(tcell.ColorGreen)
	u.table.Select(board.Size()/2, board.Size()/2)
	u.table.SetSelectedFunc(u.onCellSelected)
	u.table.SetInputCapture(u.onKey)

	u.info.SetBorder(true)
	u.info.SetTitle(" Omok ")
	u.info.SetDynamicColors(true)

	flex := tview.NewFlex().
		AddItem(u.table, 0, 1, true).
		AddItem(u.info, 32, 1, false)
	u.app.SetRoot(flex, true).SetFocus(u.table).EnableMouse(true)

	u.refresh("")
	return u
}

func (u *ui) onKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case 'q':
		u.app.Stop()
		return nil
	case 'u':
		u.undo()
		return nil
	case 'r':
		u.restart()
		return nil
	}
	return event
}

func (u *ui) onCellSelected(row, col int) {
	if atomic.LoadInt32(&u.thinking) == 1 || u.over() {
		return
	}
	if u.board.CurrentPlayer() == u.ai.Side() {
		return
	}
	if !u.board.MakeMove(row, col) {
		u.refresh("[red]cell taken")
		return
	}
	if u.finishIfOver() {
		return
	}
	u.refresh("")
	u.scheduleAi()
}

// scheduleAi waits out the delay with a spinner, then plays White's reply on
// the UI goroutine so the board is never touched concurrently.
func (u *ui) scheduleAi() {
	atomic.StoreInt32(&u.thinking, 1)
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		deadline := time.After(u.delay)
		for i := 0; ; i++ {
			select {
			case <-ticker.C:
				spinner := spinners[i%len(spinners)]
				u.app.QueueUpdateDraw(func() {
					u.table.SetTitle(fmt.Sprintf(" White is thinking %s ", spinner))
				})
			case <-deadline:
				u.app.QueueUpdateDraw(func() {
					u.playAi()
					atomic.StoreInt32(&u.thinking, 0)
				})
				return
			}
		}
	}()
}

func (u *ui) playAi() {
	move, ok := u.ai.FindBestMove(u.board)
	if !ok {
		u.finishIfOver()
		return
	}
	u.board.MakeMove(move.Row, move.Col)
	if u.finishIfOver() {
		return
	}
	u.refresh("")
}

func (u *ui) undo() {
	if atomic.LoadInt32(&u.thinking) == 1 {
		return
	}
	if u.over() || u.board.MoveCount() < 2 {
		u.refresh("[yellow]nothing to undo")
		return
	}
	u.board.Undo()
	u.board.Undo()
	u.refresh("")
}

func (u *ui) restart() {
	if atomic.LoadInt32(&u.thinking) == 1 {
		return
	}
	u.board.Reset()
	u.refresh("")
}

// finishIfOver records the result and redraws when the game has ended.
func (u *ui) finishIfOver() bool {
	if winner, ok := u.board.Winner(); ok {
		if winner == game.PlayerBlack {
			u.wins++
			u.refresh("[green]You win! Press r to play again.")
		} else {
			u.losses++
			u.refresh("[red]White wins. Press r to play again.")
		}
		return true
	}
	if u.board.Full() {
		u.refresh("[yellow]Draw. Press r to play again.")
		return true
	}
	return false
}

// over reports a win or a drawn, full board.
func (u *ui) over() bool {
	return u.board.GameOver() || u.board.Full()
}

func (u *ui) refresh(message string) {
	last, hasLast := u.board.LastMove()
	size := u.board.Size()
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			cell := tview.NewTableCell(cellSymbol(u.board.At(row, col))).SetAlign(tview.AlignCenter)
			if hasLast && last.Equals(game.NewMove(row, col)) {
				cell.SetTextColor(tcell.ColorRed)
			}
			u.table.SetCell(row, col, cell)
		}
	}

	turn := "Your move (Black)"
	if u.over() {
		turn = "Game over"
	} else if u.board.CurrentPlayer() == u.ai.Side() {
		turn = fmt.Sprintf("%s to move", u.ai.Side())
	}
	u.table.SetTitle(fmt.Sprintf(" Omok - %s ", turn))
	u.info.SetText(fmt.Sprintf(
		"Moves: %d\nWins: %d  Losses: %d\n\n%s\n\nEnter/click  place\nu  undo\nr  restart\nq  quit",
		u.board.MoveCount(), u.wins, u.losses, message))
}

func cellSymbol(cell game.Cell) string {
	switch cell {
	case game.CellBlack:
		return " ● "
	case game.CellWhite:
		return " ○ "
	default:
		return " · "
	}
}
