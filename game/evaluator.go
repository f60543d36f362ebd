package game

import (
	"math/rand"
	"time"
)

const (
	winScore   = 10000.0
	blockScore = 9000.0

	ownWeight      = 1.0
	opponentWeight = 0.9
	centerBonus    = 0.5
)

// Position is everything the evaluator may touch on a board. Place and Clear
// are only used for placements that are reverted before returning.
type Position interface {
	Size() int
	MoveCount() int
	InBounds(row, col int) bool
	At(row, col int) Cell
	Place(row, col int, cell Cell)
	Clear(row, col int)
	CheckWin(row, col int) bool
	EmptyCells() []Move
}

// Intner is the subset of *rand.Rand used for tie-breaking.
type Intner interface {
	Intn(n int) int
}

type ScoredMove struct {
	Move  Move    `json:"move"`
	Score float64 `json:"score"`
}

// Evaluator picks moves for one side with a single-ply pattern heuristic.
// It keeps no game state between calls.
type Evaluator struct {
	side PlayerColor
	rng  Intner
}

type EvaluatorOption func(*Evaluator)

func WithRand(rng Intner) EvaluatorOption {
	return func(e *Evaluator) {
		e.rng = rng
	}
}

func WithSide(side PlayerColor) EvaluatorOption {
	return func(e *Evaluator) {
		e.side = side
	}
}

func NewEvaluator(options ...EvaluatorOption) *Evaluator {
	e := &Evaluator{side: PlayerWhite}
	for _, option := range options {
		option(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

func (e *Evaluator) Side() PlayerColor {
	return e.side
}

// FindBestMove returns one of the top-scoring empty cells, chosen uniformly
// at random, or false when the board is full.
func (e *Evaluator) FindBestMove(pos Position) (Move, bool) {
	candidates := e.BestMoves(pos)
	if len(candidates) == 0 {
		return Move{}, false
	}
	return candidates[e.rng.Intn(len(candidates))], true
}

// BestMoves returns the candidate set FindBestMove draws from, in row-major
// order.
func (e *Evaluator) BestMoves(pos Position) []Move {
	if len(pos.EmptyCells()) == 0 {
		return nil
	}
	if pos.MoveCount() == 1 {
		if opening := openingMoves(pos); len(opening) > 0 {
			return opening
		}
	}
	scored := e.ScoreBoard(pos)
	best := scored[0].Score
	for _, candidate := range scored[1:] {
		if candidate.Score > best {
			best = candidate.Score
		}
	}
	moves := []Move{}
	for _, candidate := range scored {
		if candidate.Score == best {
			moves = append(moves, candidate.Move)
		}
	}
	return moves
}

// openingMoves answers the very first stone: the centre if free, otherwise
// its free orthogonal neighbours.
func openingMoves(pos Position) []Move {
	center := pos.Size() / 2
	if pos.At(center, center) == CellEmpty {
		return []Move{NewMove(center, center)}
	}
	neighbors := [4]Move{
		NewMove(center-1, center),
		NewMove(center+1, center),
		NewMove(center, center-1),
		NewMove(center, center+1),
	}
	moves := []Move{}
	for _, m := range neighbors {
		if pos.InBounds(m.Row, m.Col) && pos.At(m.Row, m.Col) == CellEmpty {
			moves = append(moves, m)
		}
	}
	return moves
}

func (e *Evaluator) ScoreBoard(pos Position) []ScoredMove {
	empty := pos.EmptyCells()
	scored := make([]ScoredMove, 0, len(empty))
	for _, m := range empty {
		scored = append(scored, ScoredMove{Move: m, Score: e.EvaluateMove(pos, m.Row, m.Col)})
	}
	return scored
}

// EvaluateMove scores an empty cell for the evaluator's side. The position is
// unchanged when it returns.
func (e *Evaluator) EvaluateMove(pos Position, row, col int) float64 {
	own := CellFromPlayer(e.side)
	opp := CellFromPlayer(e.side.Opponent())

	if withStone(pos, row, col, own, func() bool { return pos.CheckWin(row, col) }) {
		return winScore
	}
	if withStone(pos, row, col, opp, func() bool { return pos.CheckWin(row, col) }) {
		return blockScore
	}

	score := 0.0
	for _, side := range [2]struct {
		cell   Cell
		weight float64
	}{{own, ownWeight}, {opp, opponentWeight}} {
		for _, axis := range axes {
			var run, blocked int
			withStone(pos, row, col, side.cell, func() bool {
				run, blocked = scanRun(pos, row, col, axis[0], axis[1], side.cell)
				return false
			})
			score += patternScore(run, blocked) * side.weight
		}
	}

	size := pos.Size()
	center := size / 2
	distance := abs(row-center) + abs(col-center)
	score += float64(size-distance) * centerBonus
	return score
}

// withStone puts cell at (row, col) for the duration of fn and restores the
// previous value on every exit path.
func withStone(pos Position, row, col int, cell Cell, fn func() bool) bool {
	prev := pos.At(row, col)
	pos.Place(row, col, cell)
	defer pos.Place(row, col, prev)
	return fn()
}

// scanRun walks both directions of an axis from (row, col) like CheckWin,
// and also counts the ends closed by the edge or an opposing stone.
func scanRun(pos Position, row, col, dr, dc int, cell Cell) (run, blocked int) {
	run = 1
	for _, sign := range [2]int{1, -1} {
		for i := 1; i < WinLength; i++ {
			r := row + sign*dr*i
			c := col + sign*dc*i
			if !pos.InBounds(r, c) {
				blocked++
				break
			}
			next := pos.At(r, c)
			if next == cell {
				run++
				continue
			}
			if next != CellEmpty {
				blocked++
			}
			break
		}
	}
	return run, blocked
}

func patternScore(run, blocked int) float64 {
	switch {
	case run >= WinLength:
		return 5000
	case blocked >= 2:
		return 0
	case run == 4:
		if blocked == 0 {
			return 1000
		}
		return 500
	case run == 3:
		if blocked == 0 {
			return 200
		}
		return 100
	case run == 2:
		if blocked == 0 {
			return 50
		}
		return 20
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
