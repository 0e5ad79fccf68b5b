package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oarkflow/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pachpandenikhil/HMM/nlp/config"
	"github.com/pachpandenikhil/HMM/nlp/learn"
	"github.com/pachpandenikhil/HMM/nlp/metrics"
	"github.com/pachpandenikhil/HMM/store"
)

const trainCorpus = `The/DT dog/NN runs/VB
The/DT cat/NN sleeps/VB
Rex/NP runs/VB
`

func setup(t *testing.T, corpusText string) (*config.Config, *Server) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hmmmodel.txt")
	saveModel(t, path, corpusText)

	cfg := config.Default()
	cfg.Model.Path = path
	s, err := New(cfg, metrics.New(), nil)
	require.NoError(t, err)
	return cfg, s
}

func saveModel(t *testing.T, path, corpusText string) {
	t.Helper()
	m, _, err := learn.Train(strings.NewReader(corpusText), learn.Options{})
	require.NoError(t, err)
	require.NoError(t, store.Save(path, m))
}

func postTag(t *testing.T, s *Server, text string) (int, TagResponse) {
	t.Helper()
	body, err := json.Marshal(TagRequest{Text: text})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/tag", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out TagResponse
	if resp.StatusCode == http.StatusOK {
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp.StatusCode, out
}

func TestTag(t *testing.T) {
	_, s := setup(t, trainCorpus)

	code, out := postTag(t, s, "The dog runs\n\nZorblax sleeps")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, out.Sentences, 2)
	assert.Equal(t, []string{"DT", "NN", "VB"}, out.Sentences[0].Tags)
	assert.Equal(t, []string{"Zorblax"}, out.Sentences[1].Unseen)
	assert.Equal(t, "NP", out.Sentences[1].Tags[0])
	assert.Equal(t, "The/DT dog/NN runs/VB\nZorblax/NP sleeps/VB", out.Output)
	assert.NotEmpty(t, out.RunID)
}

func TestTagRunsAreIsolated(t *testing.T) {
	_, s := setup(t, trainCorpus)

	_, first := postTag(t, s, "Zorblax runs\nZorblax sleeps")
	require.Len(t, first.Sentences, 2)
	assert.Equal(t, []string{"Zorblax"}, first.Sentences[0].Unseen)
	assert.Empty(t, first.Sentences[1].Unseen)

	_, second := postTag(t, s, "Zorblax runs")
	assert.Equal(t, []string{"Zorblax"}, second.Sentences[0].Unseen)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestTagBadRequest(t *testing.T) {
	_, s := setup(t, trainCorpus)

	code, _ := postTag(t, s, "   \n")
	assert.Equal(t, http.StatusBadRequest, code)

	req := httptest.NewRequest(http.MethodPost, "/tag", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestModelAndHealth(t *testing.T) {
	_, s := setup(t, trainCorpus)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/model", nil))
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var info ModelInfo
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, []string{"DT", "NN", "NP", "VB"}, info.Tags)
	assert.Equal(t, "NP", info.Fallback)
	assert.Equal(t, 6, info.Words)
	assert.Empty(t, info.Stored)
	assert.True(t, s.watchable())
}

func TestMetricsEndpoint(t *testing.T) {
	_, s := setup(t, trainCorpus)
	postTag(t, s, "The dog runs")

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hmm_sentences_decoded_total 1")
	assert.Contains(t, string(data), `hmm_model_reloads_total{result="ok"} 1`)
}

func TestReload(t *testing.T) {
	cfg, s := setup(t, trainCorpus)

	saveModel(t, cfg.Model.Path, trainCorpus+"Quickly/RB runs/VB\n")
	require.NoError(t, s.Reload())
	_, out := postTag(t, s, "Quickly runs")
	assert.Equal(t, []string{"RB", "VB"}, out.Sentences[0].Tags)

	// a broken file keeps the previous model
	require.NoError(t, os.WriteFile(cfg.Model.Path, []byte(`{"start_probability": {}}`), 0o644))
	assert.ErrorIs(t, s.Reload(), store.ErrFormat)
	_, out = postTag(t, s, "Quickly runs")
	assert.Equal(t, []string{"RB", "VB"}, out.Sentences[0].Tags)
}

func TestWatchReloads(t *testing.T) {
	cfg, s := setup(t, trainCorpus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	saveModel(t, cfg.Model.Path, trainCorpus+"Quickly/RB runs/VB\n")

	assert.Eventually(t, func() bool {
		_, out := postTag(t, s, "Quickly")
		return len(out.Sentences) == 1 && out.Sentences[0].Tags[0] == "RB"
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestNewUnknownFallback(t *testing.T) {
	cfg, _ := setup(t, trainCorpus)
	cfg.Decode.FallbackTag = "ZZ"
	_, err := New(cfg, nil, nil)
	assert.Error(t, err)
}

func TestTagRateLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hmmmodel.txt")
	saveModel(t, path, trainCorpus)
	cfg := config.Default()
	cfg.Model.Path = path
	cfg.Server.RateLimit = 1
	s, err := New(cfg, metrics.New(), nil)
	require.NoError(t, err)

	code, _ := postTag(t, s, "The dog runs")
	assert.Equal(t, http.StatusOK, code)
	code, _ = postTag(t, s, "The dog runs")
	assert.Equal(t, http.StatusTooManyRequests, code)

	// other routes are not limited
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestModelListsStoredModels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")
	m, _, err := learn.Train(strings.NewReader(trainCorpus), learn.Options{})
	require.NoError(t, err)
	require.NoError(t, store.Save(path, m, store.WithName("brown")))
	require.NoError(t, store.Save(path, m, store.WithName("wsj")))

	cfg := config.Default()
	cfg.Model.Path = path
	cfg.Model.Name = "wsj"
	s, err := New(cfg, metrics.New(), nil)
	require.NoError(t, err)
	assert.False(t, s.watchable())

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/model", nil))
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var info ModelInfo
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "wsj", info.Name)
	assert.Equal(t, []string{"brown", "wsj"}, info.Stored)

	code, out := postTag(t, s, "The dog runs")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "The/DT dog/NN runs/VB", out.Output)
}
