package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pachpandenikhil/HMM/nlp/config"
	"github.com/pachpandenikhil/HMM/nlp/export"
	"github.com/pachpandenikhil/HMM/nlp/logging"
	"github.com/pachpandenikhil/HMM/nlp/normalizer"
	"github.com/pachpandenikhil/HMM/nlp/pos"
	"github.com/pachpandenikhil/HMM/store"
)

func main() {
	cfgPath := flag.String("config", "", "config file (YAML, or BCL with a .bcl extension)")
	modelPath := flag.String("model", "", "model to load (default hmmmodel.txt)")
	format := flag.String("format", "", "model format: json, msgpack or sqlite (default from extension)")
	name := flag.String("name", "", "model name inside a SQLite file")
	out := flag.String("out", "", "where to write tagged output (default hmmoutput.txt)")
	fallback := flag.String("fallback", "", "tag assigned to unseen words (default NP)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: hmmdecode [flags] <test-file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hmmdecode:", err)
		os.Exit(1)
	}
	override(&cfg.Model.Path, *modelPath)
	override(&cfg.Model.Format, *format)
	override(&cfg.Model.Name, *name)
	override(&cfg.Decode.Output, *out)
	override(&cfg.Decode.FallbackTag, *fallback)

	logger, closer, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hmmdecode:", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, flag.Arg(0), logger); err != nil {
		logger.Error("decoding failed", slog.String("err", err.Error()))
		closer.Close()
		os.Exit(1)
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// run decodes the whole test file before the output file is created, so a
// failure leaves no partial output behind.
func run(cfg *config.Config, testPath string, logger *slog.Logger) error {
	norm, err := normalizer.ByName(cfg.Normalize)
	if err != nil {
		return err
	}
	opts, err := store.ConfigOptions(cfg.Model)
	if err != nil {
		return err
	}
	m, err := store.Load(cfg.Model.Path, opts...)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	d, err := pos.NewModelDecoder(m, cfg.Decode.FallbackTag,
		pos.WithNormalizer(norm),
		pos.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	f, err := os.Open(testPath)
	if err != nil {
		return err
	}
	defer f.Close()
	sentences, err := d.Run(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", testPath, err)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, sentences); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Decode.Output, buf.Bytes(), 0o644); err != nil {
		return err
	}
	logger.Info("output written", slog.String("path", cfg.Decode.Output), slog.Int("sentences", len(sentences)))
	return nil
}
