package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/logrusorgru/aurora"
	"github.com/schollz/progressbar/v3"
	"github.com/yeseung/omok-extension/game"
	"github.com/zeromicro/go-zero/core/logx"
)

func main() {
	cfg := matchConfig{}
	flag.IntVar(&cfg.Games, "games", getenvInt("TRAINER_GAMES", 100), "number of self-play games")
	flag.IntVar(&cfg.BoardSize, "size", getenvInt("TRAINER_BOARD_SIZE", game.DefaultBoardSize), "board size")
	flag.IntVar(&cfg.Workers, "workers", getenvInt("TRAINER_WORKERS", runtime.NumCPU()), "games played in parallel")
	flag.IntVar(&cfg.OpeningPlies, "opening-plies", getenvInt("TRAINER_OPENING_PLIES", 4), "random stones placed near the centre before the evaluators take over")
	flag.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "base random seed")
	out := flag.String("out", os.Getenv("TRAINER_REPORT"), "optional path for a JSON report")
	flag.Parse()

	logx.DisableStat()
	if err := run(cfg, *out); err != nil {
		logx.Errorf("[trainer] %v", err)
		logx.Close()
		os.Exit(1)
	}
}

func run(cfg matchConfig, out string) error {
	if cfg.BoardSize < game.WinLength {
		return fmt.Errorf("%w: %d", game.ErrInvalidBoardSize, cfg.BoardSize)
	}
	cfg = cfg.normalized()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	logx.Infof("[trainer] playing %d games on %dx%d, workers=%d opening_plies=%d seed=%d",
		cfg.Games, cfg.BoardSize, cfg.BoardSize, cfg.Workers, cfg.OpeningPlies, cfg.Seed)

	bar := newBar(cfg.Games, "self-play")
	started := time.Now()
	results, err := runMatches(sigCtx, cfg, func(matchResult) { _ = bar.Add(1) })
	_ = bar.Finish()
	if err != nil {
		return err
	}

	s := summarize(cfg, results)
	s.DurationMs = time.Since(started).Milliseconds()
	printSummary(s)

	if out == "" {
		return nil
	}
	data, err := sonic.ConfigDefault.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", out, err)
	}
	logx.Infof("[trainer] report written to %s", out)
	return nil
}

func newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        aurora.Yellow("█").String(),
			SaucerHead:    aurora.Yellow("█").String(),
			SaucerPadding: " ",
			BarStart:      "|",
			BarEnd:        "|",
		}),
	)
}

func printSummary(s summary) {
	rate := func(n int) string {
		if s.Games == 0 {
			return "0.0%"
		}
		return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(s.Games))
	}
	fmt.Println()
	fmt.Println(aurora.Bold(fmt.Sprintf("%d games on %dx%d in %s", s.Games, s.BoardSize, s.BoardSize, time.Duration(s.DurationMs)*time.Millisecond)))
	fmt.Printf("  %-12s %5d  %s\n", aurora.Cyan("black wins"), s.BlackWins, rate(s.BlackWins))
	fmt.Printf("  %-12s %5d  %s\n", aurora.Magenta("white wins"), s.WhiteWins, rate(s.WhiteWins))
	fmt.Printf("  %-12s %5d  %s\n", aurora.Yellow("draws"), s.Draws, rate(s.Draws))
	fmt.Printf("  %-12s %8.1f\n", aurora.Green("avg plies"), s.AvgPlies)
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
