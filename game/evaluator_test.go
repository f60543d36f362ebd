package game

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
)

type fixedRand struct {
	pick int
}

func (f fixedRand) Intn(n int) int {
	return f.pick % n
}

func seededEvaluator(options ...EvaluatorOption) *Evaluator {
	options = append([]EvaluatorOption{WithRand(rand.New(rand.NewSource(1)))}, options...)
	return NewEvaluator(options...)
}

func assertScore(t *testing.T, expected, got float64) {
	t.Helper()
	if math.Abs(expected-got) > 1e-9 {
		t.Fatalf("expected score %v, got %v", expected, got)
	}
}

func TestFindBestMoveOnFullBoard(t *testing.T) {
	b := newTestBoard(t, 5)
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			b.Place(row, col, CellBlack)
		}
	}
	if _, ok := seededEvaluator().FindBestMove(b); ok {
		t.Fatalf("expected no move on a full board")
	}
}

func TestFirstReplyTakesCenter(t *testing.T) {
	b := newTestBoard(t, 15)
	if !b.MakeMove(0, 0) {
		t.Fatalf("opening move rejected")
	}
	move, ok := seededEvaluator().FindBestMove(b)
	if !ok || !move.Equals(Move{7, 7}) {
		t.Fatalf("expected centre (7,7), got %v (%v)", move, ok)
	}
}

func TestFirstReplyNextToOccupiedCenter(t *testing.T) {
	b := newTestBoard(t, 15)
	if !b.MakeMove(7, 7) {
		t.Fatalf("opening move rejected")
	}
	expected := []Move{{6, 7}, {8, 7}, {7, 6}, {7, 8}}
	e := seededEvaluator()
	if got := e.BestMoves(b); !reflect.DeepEqual(expected, got) {
		t.Fatalf("expected opening candidates %v, got %v", expected, got)
	}
	for pick := 0; pick < 4; pick++ {
		move, ok := NewEvaluator(WithRand(fixedRand{pick: pick})).FindBestMove(b)
		if !ok || !move.Equals(expected[pick]) {
			t.Fatalf("expected pick %d to return %v, got %v", pick, expected[pick], move)
		}
	}
}

func TestEmptyBoardPrefersCenter(t *testing.T) {
	b := newTestBoard(t, 15)
	move, ok := seededEvaluator(WithSide(PlayerBlack)).FindBestMove(b)
	if !ok || !move.Equals(Move{7, 7}) {
		t.Fatalf("expected centre on an empty board, got %v", move)
	}
}

func TestWinningMoveBeatsBlock(t *testing.T) {
	b := newTestBoard(t, 15)
	playAlternating(t, b,
		[]Move{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {14, 14}},
		[]Move{{5, 3}, {5, 4}, {5, 5}, {5, 6}},
	)
	e := seededEvaluator()
	assertScore(t, winScore, e.EvaluateMove(b, 5, 2))
	assertScore(t, blockScore, e.EvaluateMove(b, 0, 4))

	expected := []Move{{5, 2}, {5, 7}}
	if got := e.BestMoves(b); !reflect.DeepEqual(expected, got) {
		t.Fatalf("expected winning cells %v, got %v", expected, got)
	}
	move, _ := e.FindBestMove(b)
	if !move.Equals(expected[0]) && !move.Equals(expected[1]) {
		t.Fatalf("expected a winning move, got %v", move)
	}
}

func TestBlackSideScoring(t *testing.T) {
	b := newTestBoard(t, 15)
	playAlternating(t, b,
		[]Move{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {14, 14}},
		[]Move{{5, 3}, {5, 4}, {5, 5}, {5, 6}},
	)
	e := seededEvaluator(WithSide(PlayerBlack))
	if e.Side() != PlayerBlack {
		t.Fatalf("expected a Black evaluator, got %v", e.Side())
	}
	assertScore(t, winScore, e.EvaluateMove(b, 0, 4))
	assertScore(t, blockScore, e.EvaluateMove(b, 5, 2))
	assertScore(t, blockScore, e.EvaluateMove(b, 5, 7))
	expected := []Move{{0, 4}}
	if got := e.BestMoves(b); !reflect.DeepEqual(expected, got) {
		t.Fatalf("expected the winning cell %v, got %v", expected, got)
	}

	b = newTestBoard(t, 15)
	if !b.MakeMove(7, 7) {
		t.Fatalf("move rejected")
	}
	// Own pair now weighted 1.0: 50 plus centre bonus 7.
	assertScore(t, 57, e.EvaluateMove(b, 7, 8))

	b = newTestBoard(t, 15)
	playAlternating(t, b, []Move{{0, 0}, {0, 1}}, []Move{{14, 14}})
	assertScore(t, 101.5, e.EvaluateMove(b, 0, 2))
}

func TestBlocksOpenFourAtEdge(t *testing.T) {
	b := newTestBoard(t, 15)
	playAlternating(t, b,
		[]Move{{0, 0}, {0, 1}, {0, 2}, {0, 3}},
		[]Move{{10, 0}, {10, 5}, {10, 10}},
	)
	e := seededEvaluator()
	assertScore(t, blockScore, e.EvaluateMove(b, 0, 4))
	expected := []Move{{0, 4}}
	if got := e.BestMoves(b); !reflect.DeepEqual(expected, got) {
		t.Fatalf("expected block at (0,4), got %v", got)
	}
}

func TestEvaluateMovePatternScores(t *testing.T) {
	b := newTestBoard(t, 15)
	if !b.MakeMove(7, 7) {
		t.Fatalf("move rejected")
	}
	e := seededEvaluator()
	// Black pair through (7,8), open both ends, weighted 0.9, plus centre bonus 7.
	assertScore(t, 52, e.EvaluateMove(b, 7, 8))

	b = newTestBoard(t, 15)
	playAlternating(t, b, []Move{{0, 0}, {0, 1}}, []Move{{14, 14}})
	// Black three closed by the edge: 100 * 0.9, plus centre bonus (15-12)*0.5.
	assertScore(t, 91.5, e.EvaluateMove(b, 0, 2))
}

func TestEvaluateMoveLeavesBoardUntouched(t *testing.T) {
	b := newTestBoard(t, 15)
	playAlternating(t, b,
		[]Move{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {14, 14}},
		[]Move{{5, 3}, {5, 4}, {5, 5}, {5, 6}},
	)
	before := b.Grid()
	e := seededEvaluator()
	e.ScoreBoard(b)
	e.EvaluateMove(b, 5, 2)
	e.EvaluateMove(b, 0, 4)
	if !reflect.DeepEqual(before, b.Grid()) {
		t.Fatalf("evaluation changed the board")
	}
	if b.StoneCount() != b.MoveCount() {
		t.Fatalf("expected stones %d to match history %d", b.StoneCount(), b.MoveCount())
	}
}

func TestTieBreakDrawsFromCandidates(t *testing.T) {
	b := newTestBoard(t, 15)
	playAlternating(t, b,
		[]Move{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {14, 14}},
		[]Move{{5, 3}, {5, 4}, {5, 5}, {5, 6}},
	)
	candidates := seededEvaluator().BestMoves(b)
	seen := map[Move]bool{}
	e := NewEvaluator(WithRand(rand.New(rand.NewSource(42))))
	for i := 0; i < 50; i++ {
		move, ok := e.FindBestMove(b)
		if !ok {
			t.Fatalf("expected a move")
		}
		seen[move] = true
	}
	for move := range seen {
		found := false
		for _, c := range candidates {
			if c.Equals(move) {
				found = true
			}
		}
		if !found {
			t.Fatalf("picked %v outside candidate set %v", move, candidates)
		}
	}
	if len(seen) != len(candidates) {
		t.Fatalf("expected every tied candidate to be picked at least once, saw %v", seen)
	}
}

func TestPatternScoreTable(t *testing.T) {
	cases := []struct {
		run, blocked int
		expected     float64
	}{
		{5, 2, 5000},
		{6, 0, 5000},
		{4, 0, 1000},
		{4, 1, 500},
		{4, 2, 0},
		{3, 0, 200},
		{3, 1, 100},
		{3, 2, 0},
		{2, 0, 50},
		{2, 1, 20},
		{2, 2, 0},
		{1, 0, 0},
	}
	for _, tc := range cases {
		if got := patternScore(tc.run, tc.blocked); got != tc.expected {
			t.Fatalf("patternScore(%d, %d): expected %v, got %v", tc.run, tc.blocked, tc.expected, got)
		}
	}
}

func TestScanRunMatchesCheckWin(t *testing.T) {
	b := newTestBoard(t, 9)
	for col := 0; col < 5; col++ {
		b.Place(4, col, CellBlack)
	}
	b.Place(4, 5, CellWhite)
	run, blocked := scanRun(b, 4, 2, 0, 1, CellBlack)
	if run != 5 || blocked != 2 {
		t.Fatalf("expected run 5 with both ends blocked, got run %d blocked %d", run, blocked)
	}
	if !b.CheckWin(4, 2) {
		t.Fatalf("expected CheckWin to agree with the scanned run")
	}
}
