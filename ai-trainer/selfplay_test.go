package main

import (
	"context"
	"math/rand"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yeseung/omok-extension/game"
)

func TestBuildOpeningStaysNearCenter(t *testing.T) {
	for _, size := range []int{5, 9, 15} {
		rng := rand.New(rand.NewSource(int64(size)))
		opening := buildOpening(size, len(openingOffsets), rng)
		if len(opening) != len(openingOffsets) {
			t.Fatalf("expected %d opening moves, got %d", len(openingOffsets), len(opening))
		}
		seen := map[game.Move]bool{}
		for _, m := range opening {
			if !m.IsValid(size) {
				t.Fatalf("opening move %v off a %dx%d board", m, size, size)
			}
			if seen[m] {
				t.Fatalf("opening move %v repeated", m)
			}
			seen[m] = true
		}
	}
}

func TestPlayGameEndsWithResult(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	res, err := playGame(9, buildOpening(9, 2, rng), rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Plies < 2 || res.Plies > 81 {
		t.Fatalf("expected plies within [2, 81], got %d", res.Plies)
	}
	if strings.Count(res.Final, "\n") != 9 {
		t.Fatalf("expected a 9-row final board, got %q", res.Final)
	}
	switch res.Winner {
	case resultBlack, resultWhite:
		if res.Plies < 2*game.WinLength-1 {
			t.Fatalf("expected at least %d plies for a win, got %d", 2*game.WinLength-1, res.Plies)
		}
	case resultDraw:
		if res.Plies != 81 {
			t.Fatalf("expected a draw only on a full board, got %d plies", res.Plies)
		}
	default:
		t.Fatalf("unexpected winner %q", res.Winner)
	}
}

func TestRunMatchesIsReproducible(t *testing.T) {
	cfg := matchConfig{Games: 6, BoardSize: 9, Workers: 3, OpeningPlies: 3, Seed: 42}
	var done int32
	first, err := runMatches(context.Background(), cfg, func(matchResult) { atomic.AddInt32(&done, 1) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done != 6 {
		t.Fatalf("expected 6 completion callbacks, got %d", done)
	}
	cfg.Workers = 1
	second, err := runMatches(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results for the same seed")
	}
	for i, res := range first {
		if res.Index != i {
			t.Fatalf("expected result %d at index %d", res.Index, i)
		}
	}
}

func TestRunMatchesStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runMatches(ctx, matchConfig{Games: 4, BoardSize: 9, Workers: 2, Seed: 1}, nil); err == nil {
		t.Fatalf("expected an error from a cancelled run")
	}
}

func TestSummarizeCountsOutcomes(t *testing.T) {
	results := []matchResult{
		{Winner: resultBlack, Plies: 9},
		{Winner: resultWhite, Plies: 20},
		{Winner: resultBlack, Plies: 13},
		{Winner: resultDraw, Plies: 25},
	}
	s := summarize(matchConfig{BoardSize: 5, Seed: 3}, results)
	if s.Games != 4 || s.BlackWins != 2 || s.WhiteWins != 1 || s.Draws != 1 {
		t.Fatalf("unexpected tallies: %+v", s)
	}
	if s.AvgPlies != 16.75 {
		t.Fatalf("expected average 16.75 plies, got %v", s.AvgPlies)
	}
}

func TestNormalizedClampsSettings(t *testing.T) {
	cfg := matchConfig{Games: 0, Workers: -2, OpeningPlies: 99}.normalized()
	if cfg.Games != 1 || cfg.Workers != 1 || cfg.OpeningPlies != len(openingOffsets) {
		t.Fatalf("unexpected normalized config: %+v", cfg)
	}
}
