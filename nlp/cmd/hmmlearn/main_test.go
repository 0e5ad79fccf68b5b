package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pachpandenikhil/HMM/nlp/config"
	"github.com/pachpandenikhil/HMM/nlp/corpus"
	"github.com/pachpandenikhil/HMM/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeCorpus(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "train.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunWritesModel(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"hmmmodel.txt", "hmmmodel.msgpack", "models.db"} {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Model.Path = filepath.Join(dir, name)
			require.NoError(t, run(cfg, writeCorpus(t, dir, "The/DT dog/NN runs/VB\n"), quiet))

			m, err := store.Load(cfg.Model.Path)
			require.NoError(t, err)
			assert.Equal(t, []string{"DT", "NN", "VB"}, m.Tags())
			assert.Equal(t, 1.0, m.Emission["DT"]["The"])
			assert.InDelta(t, 0.5, m.Start["DT"], 1e-12)
		})
	}
}

func TestRunFormatErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Model.Path = filepath.Join(dir, "hmmmodel.txt")

	err := run(cfg, writeCorpus(t, dir, "The/DT dog/NN\nNN\n"), quiet)
	assert.ErrorIs(t, err, corpus.ErrFormat)
	_, statErr := os.Stat(cfg.Model.Path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRunEmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Model.Path = filepath.Join(dir, "hmmmodel.txt")
	assert.Error(t, run(cfg, writeCorpus(t, dir, "\n\n"), quiet))
}

func TestOverride(t *testing.T) {
	v := "a"
	override(&v, "")
	assert.Equal(t, "a", v)
	override(&v, "b")
	assert.Equal(t, "b", v)
}
