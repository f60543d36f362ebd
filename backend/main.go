package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

var (
	configFile = flag.String("f", "", "path to a yaml or json config file")
	addrFlag   = flag.String("addr", "", "listen address, overrides the config file")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		logx.Errorf("[backend] %v", err)
		logx.Close()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig(*configFile)
	if err != nil {
		return err
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if err := logx.SetUp(cfg.LogConf()); err != nil {
		return err
	}
	defer logx.Close()

	points, err := newPointsStore(cfg)
	if err != nil {
		return err
	}

	configStore := NewConfigStore(cfg)
	hub := NewHub()
	sessions := NewSessionManager(configStore, points, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx.Done())
	go sessions.RunJanitor(ctx.Done())

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: newRouter(&server{
			config:   configStore,
			sessions: sessions,
			points:   points,
			hub:      hub,
		}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	logx.Infof("[backend] listening on %s (board %dx%d, ai delay %s)", cfg.Addr, cfg.BoardSize, cfg.BoardSize, cfg.AiDelay())

	var runErr error
	select {
	case <-sigCtx.Done():
		logx.Infof("[backend] shutdown signal received: %v", sigCtx.Err())
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Errorf("[backend] graceful shutdown failed: %v", err)
		if closeErr := httpServer.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			logx.Errorf("[backend] forced close failed: %v", closeErr)
		}
	}
	cancel()
	return runErr
}
