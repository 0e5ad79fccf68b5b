package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pachpandenikhil/HMM/nlp/config"
	"github.com/pachpandenikhil/HMM/nlp/logging"
	"github.com/pachpandenikhil/HMM/nlp/metrics"
	"github.com/pachpandenikhil/HMM/nlp/server"
)

func main() {
	cfgPath := flag.String("config", "", "config file (YAML, or BCL with a .bcl extension)")
	addr := flag.String("addr", "", "HTTP listen address (default :8080)")
	model := flag.String("model", "", "model to serve (default hmmmodel.txt)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if *model != "" {
		cfg.Model.Path = *model
	}

	logger, closer, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
	defer closer.Close()

	srv, err := server.New(cfg, metrics.New(), logger)
	if err != nil {
		logger.Error("server init failed", slog.String("err", err.Error()))
		closer.Close()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", slog.String("err", err.Error()))
		closer.Close()
		os.Exit(1)
	}
}
