package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pachpandenikhil/HMM/nlp/config"
	"github.com/pachpandenikhil/HMM/nlp/learn"
	"github.com/pachpandenikhil/HMM/nlp/logging"
	"github.com/pachpandenikhil/HMM/nlp/normalizer"
	"github.com/pachpandenikhil/HMM/store"
)

func main() {
	cfgPath := flag.String("config", "", "config file (YAML, or BCL with a .bcl extension)")
	modelPath := flag.String("model", "", "where to write the model (default hmmmodel.txt)")
	format := flag.String("format", "", "model format: json, msgpack or sqlite (default from extension)")
	name := flag.String("name", "", "model name inside a SQLite file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: hmmlearn [flags] <train-corpus>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hmmlearn:", err)
		os.Exit(1)
	}
	override(&cfg.Model.Path, *modelPath)
	override(&cfg.Model.Format, *format)
	override(&cfg.Model.Name, *name)

	logger, closer, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hmmlearn:", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, flag.Arg(0), logger); err != nil {
		logger.Error("training failed", slog.String("err", err.Error()))
		closer.Close()
		os.Exit(1)
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func run(cfg *config.Config, corpusPath string, logger *slog.Logger) error {
	norm, err := normalizer.ByName(cfg.Normalize)
	if err != nil {
		return err
	}
	opts, err := store.ConfigOptions(cfg.Model)
	if err != nil {
		return err
	}
	f, err := os.Open(corpusPath)
	if err != nil {
		return err
	}
	defer f.Close()

	m, counts, err := learn.Train(f, learn.Options{Normalize: norm})
	if err != nil {
		return fmt.Errorf("read %s: %w", corpusPath, err)
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("corpus %s: %w", corpusPath, err)
	}
	if err := store.Save(cfg.Model.Path, m, opts...); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	logger.Info("model written",
		slog.String("path", cfg.Model.Path),
		slog.Int("sentences", counts.Sentences),
		slog.Int("tags", len(counts.Tags)),
	)
	return nil
}
