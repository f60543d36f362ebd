package game

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultBoardSize = 15
	WinLength        = 5
)

var ErrInvalidBoardSize = errors.New("board size must be at least the winning length")

type Cell int

const (
	CellEmpty Cell = iota
	CellBlack
	CellWhite
)

// axes are the four undirected lines a run can follow: horizontal, vertical,
// diagonal down-right and diagonal up-right. Win detection and move scoring
// must walk them in the same order.
var axes = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// Board is the single authority over stones, turn order and win state.
// It is not safe for concurrent use; callers serialize access per session.
type Board struct {
	size          int
	cells         []Cell
	currentPlayer PlayerColor
	history       MoveHistory
	gameOver      bool
}

func NewBoard(size int) (*Board, error) {
	if size < WinLength {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBoardSize, size)
	}
	b := &Board{size: size}
	b.Reset()
	return b, nil
}

func NewDefaultBoard() *Board {
	b, _ := NewBoard(DefaultBoardSize)
	return b
}

// Reset empties the board in place, keeping its size.
func (b *Board) Reset() {
	b.cells = make([]Cell, b.size*b.size)
	b.currentPlayer = PlayerBlack
	b.history.Clear()
	b.gameOver = false
}

// MakeMove places the current player's stone. It reports false and leaves the
// board untouched if the game is over, the coordinates are off the board or
// the cell is taken.
func (b *Board) MakeMove(row, col int) bool {
	if b.gameOver || !b.InBounds(row, col) || b.At(row, col) != CellEmpty {
		return false
	}
	player := b.currentPlayer
	b.Place(row, col, CellFromPlayer(player))
	b.history.Push(HistoryEntry{Move: NewMove(row, col), Player: player})
	if b.CheckWin(row, col) {
		b.gameOver = true
		return true
	}
	b.currentPlayer = player.Opponent()
	return true
}

// CheckWin reports whether the stone at (row, col) is part of a run of at
// least WinLength stones. The cell is expected to be occupied.
func (b *Board) CheckWin(row, col int) bool {
	cell := b.At(row, col)
	for _, axis := range axes {
		count := 1
		count += b.countDirection(row, col, axis[0], axis[1], cell)
		count += b.countDirection(row, col, -axis[0], -axis[1], cell)
		if count >= WinLength {
			return true
		}
	}
	return false
}

func (b *Board) countDirection(row, col, dr, dc int, cell Cell) int {
	count := 0
	for i := 1; i < WinLength; i++ {
		r := row + dr*i
		c := col + dc*i
		if !b.InBounds(r, c) || b.At(r, c) != cell {
			break
		}
		count++
	}
	return count
}

// Undo takes back the latest move. It always reopens the game, including when
// the removed move was the winning one.
func (b *Board) Undo() bool {
	entry, ok := b.history.Pop()
	if !ok {
		return false
	}
	b.Clear(entry.Move.Row, entry.Move.Col)
	if last, ok := b.history.Last(); ok {
		b.currentPlayer = last.Player.Opponent()
	} else {
		b.currentPlayer = PlayerBlack
	}
	b.gameOver = false
	return true
}

func (b *Board) EmptyCells() []Move {
	cells := make([]Move, 0, len(b.cells)-b.history.Size())
	for row := 0; row < b.size; row++ {
		for col := 0; col < b.size; col++ {
			if b.At(row, col) == CellEmpty {
				cells = append(cells, NewMove(row, col))
			}
		}
	}
	return cells
}

func (b *Board) At(row, col int) Cell {
	return b.cells[b.index(row, col)]
}

// Place writes a cell without touching turn order or history. It exists for
// speculative evaluation; every Place must be undone with Clear or a second
// Place of the previous value.
func (b *Board) Place(row, col int, cell Cell) {
	b.cells[b.index(row, col)] = cell
}

func (b *Board) Clear(row, col int) {
	b.cells[b.index(row, col)] = CellEmpty
}

func (b *Board) InBounds(row, col int) bool {
	return NewMove(row, col).IsValid(b.size)
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) CurrentPlayer() PlayerColor {
	return b.currentPlayer
}

func (b *Board) GameOver() bool {
	return b.gameOver
}

// Winner returns the player who completed five, if the game is over.
func (b *Board) Winner() (PlayerColor, bool) {
	if !b.gameOver {
		return PlayerBlack, false
	}
	return b.currentPlayer, true
}

func (b *Board) LastMove() (Move, bool) {
	last, ok := b.history.Last()
	return last.Move, ok
}

func (b *Board) History() []HistoryEntry {
	return b.history.All()
}

func (b *Board) MoveCount() int {
	return b.history.Size()
}

// Full reports whether no empty cell is left. A full board without a winner
// is a draw.
func (b *Board) Full() bool {
	return b.StoneCount() == len(b.cells)
}

func (b *Board) StoneCount() int {
	count := 0
	for _, cell := range b.cells {
		if cell != CellEmpty {
			count++
		}
	}
	return count
}

// Grid returns a row-major copy of the cells.
func (b *Board) Grid() [][]Cell {
	rows := make([][]Cell, b.size)
	for row := 0; row < b.size; row++ {
		rows[row] = make([]Cell, b.size)
		copy(rows[row], b.cells[row*b.size:(row+1)*b.size])
	}
	return rows
}

func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < b.size; row++ {
		for col := 0; col < b.size; col++ {
			switch b.At(row, col) {
			case CellBlack:
				sb.WriteByte('X')
			case CellWhite:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b *Board) index(row, col int) int {
	return row*b.size + col
}

func (c Cell) String() string {
	switch c {
	case CellBlack:
		return "Black"
	case CellWhite:
		return "White"
	default:
		return "Empty"
	}
}
