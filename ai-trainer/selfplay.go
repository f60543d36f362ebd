package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/yeseung/omok-extension/game"
	"golang.org/x/sync/errgroup"
)

const (
	resultBlack = "black"
	resultWhite = "white"
	resultDraw  = "draw"
)

// openingOffsets are the cells around the centre an opening may use.
var openingOffsets = []game.Move{
	{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 0, Col: 1}, {Row: -1, Col: 0}, {Row: 0, Col: -1}, {Row: 1, Col: 1},
	{Row: -1, Col: -1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: 2, Col: 0}, {Row: 0, Col: 2},
}

type matchConfig struct {
	Games        int
	BoardSize    int
	Workers      int
	OpeningPlies int
	Seed         int64
}

type matchResult struct {
	Index   int         `json:"index"`
	Opening []game.Move `json:"opening"`
	Winner  string      `json:"winner"`
	Plies   int         `json:"plies"`
	Final   string      `json:"final_board"`
}

type summary struct {
	Games      int           `json:"games"`
	BoardSize  int           `json:"board_size"`
	Seed       int64         `json:"seed"`
	BlackWins  int           `json:"black_wins"`
	WhiteWins  int           `json:"white_wins"`
	Draws      int           `json:"draws"`
	AvgPlies   float64       `json:"avg_plies"`
	DurationMs int64         `json:"duration_ms"`
	Results    []matchResult `json:"results"`
}

func (c matchConfig) normalized() matchConfig {
	if c.Games < 1 {
		c.Games = 1
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.OpeningPlies < 0 {
		c.OpeningPlies = 0
	}
	if c.OpeningPlies > len(openingOffsets) {
		c.OpeningPlies = len(openingOffsets)
	}
	return c
}

// buildOpening picks distinct cells around the centre. Every offset fits on
// the smallest legal board.
func buildOpening(boardSize, plies int, rng *rand.Rand) []game.Move {
	center := boardSize / 2
	order := rng.Perm(len(openingOffsets))
	opening := make([]game.Move, 0, plies)
	for _, idx := range order[:plies] {
		off := openingOffsets[idx]
		opening = append(opening, game.NewMove(center+off.Row, center+off.Col))
	}
	return opening
}

// playGame plays the opening and then lets two evaluators alternate until one
// side wins or the board fills up.
func playGame(boardSize int, opening []game.Move, rng *rand.Rand) (matchResult, error) {
	board, err := game.NewBoard(boardSize)
	if err != nil {
		return matchResult{}, err
	}
	result := matchResult{Opening: opening}
	for _, m := range opening {
		if !board.MakeMove(m.Row, m.Col) {
			return matchResult{}, fmt.Errorf("opening move %v rejected", m)
		}
		if board.GameOver() {
			break
		}
	}

	players := map[game.PlayerColor]*game.Evaluator{
		game.PlayerBlack: game.NewEvaluator(game.WithSide(game.PlayerBlack), game.WithRand(rng)),
		game.PlayerWhite: game.NewEvaluator(game.WithSide(game.PlayerWhite), game.WithRand(rng)),
	}
	for !board.GameOver() {
		move, ok := players[board.CurrentPlayer()].FindBestMove(board)
		if !ok {
			break
		}
		if !board.MakeMove(move.Row, move.Col) {
			return matchResult{}, fmt.Errorf("evaluator chose occupied cell %v", move)
		}
	}

	result.Plies = board.MoveCount()
	result.Final = board.String()
	result.Winner = resultDraw
	if winner, ok := board.Winner(); ok {
		result.Winner = resultBlack
		if winner == game.PlayerWhite {
			result.Winner = resultWhite
		}
	}
	return result, nil
}

// runMatches plays cfg.Games games on a bounded pool. Game i is seeded with
// cfg.Seed+i so a run is reproducible regardless of scheduling.
func runMatches(ctx context.Context, cfg matchConfig, onDone func(matchResult)) ([]matchResult, error) {
	cfg = cfg.normalized()
	results := make([]matchResult, cfg.Games)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Games; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			res, err := playGame(cfg.BoardSize, buildOpening(cfg.BoardSize, cfg.OpeningPlies, rng), rng)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			res.Index = i
			results[i] = res
			if onDone != nil {
				onDone(res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func summarize(cfg matchConfig, results []matchResult) summary {
	s := summary{
		Games:     len(results),
		BoardSize: cfg.BoardSize,
		Seed:      cfg.Seed,
		Results:   results,
	}
	totalPlies := 0
	for _, res := range results {
		switch res.Winner {
		case resultBlack:
			s.BlackWins++
		case resultWhite:
			s.WhiteWins++
		default:
			s.Draws++
		}
		totalPlies += res.Plies
	}
	if len(results) > 0 {
		s.AvgPlies = float64(totalPlies) / float64(len(results))
	}
	return s
}
