package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/oarkflow/json"
	"github.com/oarkflow/xid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pachpandenikhil/HMM/nlp/config"
	"github.com/pachpandenikhil/HMM/nlp/corpus"
	"github.com/pachpandenikhil/HMM/nlp/export"
	"github.com/pachpandenikhil/HMM/nlp/metrics"
	"github.com/pachpandenikhil/HMM/nlp/normalizer"
	"github.com/pachpandenikhil/HMM/nlp/pos"
	"github.com/pachpandenikhil/HMM/store"
)

const reloadDelay = 500 * time.Millisecond

// TagRequest is the body of POST /tag. Text holds one sentence per line.
type TagRequest struct {
	Text string `json:"text"`
}

type TagResponse struct {
	RunID     string              `json:"run_id"`
	Sentences []export.Annotation `json:"sentences"`
	Output    string              `json:"output"`
}

type ModelInfo struct {
	Path     string   `json:"path"`
	Name     string   `json:"name,omitempty"`
	Stored   []string `json:"stored,omitempty"`
	Tags     []string `json:"tags"`
	Fallback string   `json:"fallback"`
	Words    int      `json:"words"`
	LoadedAt string   `json:"loaded_at"`
}

// Server tags text over HTTP. Every request is its own decoding run on a
// private copy of the loaded model, so unseen words never leak between
// requests.
type Server struct {
	cfg       *config.Config
	app       *fiber.App
	metrics   *metrics.Metrics
	logger    *slog.Logger
	normalize normalizer.Func

	mu       sync.RWMutex
	base     *pos.Decoder
	stored   []string
	loadedAt time.Time
}

// New loads the configured model and registers the routes.
func New(cfg *config.Config, m *metrics.Metrics, l *slog.Logger) (*Server, error) {
	if l == nil {
		l = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	norm, err := normalizer.ByName(cfg.Normalize)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:       cfg,
		metrics:   m,
		logger:    l,
		normalize: norm,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	s.app = fiber.New(fiber.Config{
		AppName:     "hmm",
		BodyLimit:   cfg.Server.BodyLimit,
		JSONEncoder: json.Marshal,
		JSONDecoder: func(data []byte, v any) error { return json.Unmarshal(data, v) },
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Generator: func() string { return xid.New().String() },
	}))
	s.app.Use(logger.New())
	s.app.Get("/healthz", s.health)
	s.app.Get("/model", s.model)
	if cfg.Server.RateLimit > 0 {
		s.app.Post("/tag", limiter.New(limiter.Config{
			Max:        cfg.Server.RateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
			},
		}), s.tag)
	} else {
		s.app.Post("/tag", s.tag)
	}
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	return s, nil
}

func (s *Server) App() *fiber.App { return s.app }

// Reload replaces the served model with the one on disk. On error the
// previous model stays in place.
func (s *Server) Reload() error {
	err := s.reload()
	s.metrics.Reloaded(err)
	if err != nil {
		s.logger.Error("model load failed", slog.String("path", s.cfg.Model.Path), slog.String("err", err.Error()))
		return err
	}
	s.logger.Info("model loaded", slog.String("path", s.cfg.Model.Path))
	return nil
}

func (s *Server) reload() error {
	opts, err := store.ConfigOptions(s.cfg.Model)
	if err != nil {
		return err
	}
	m, err := store.Load(s.cfg.Model.Path, opts...)
	if err != nil {
		return err
	}
	d, err := pos.NewModelDecoder(m, s.cfg.Decode.FallbackTag,
		pos.WithNormalizer(s.normalize),
		pos.WithMetrics(s.metrics),
		pos.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}
	stored, err := store.Names(s.cfg.Model.Path, opts...)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.base = d
	s.stored = stored
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *Server) fork() *pos.Decoder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base.Fork()
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) model(c *fiber.Ctx) error {
	s.mu.RLock()
	t := s.base.Tables()
	stored := s.stored
	loadedAt := s.loadedAt
	s.mu.RUnlock()

	words := make(map[string]struct{})
	for _, emit := range t.Emission {
		for w := range emit {
			words[w] = struct{}{}
		}
	}
	info := ModelInfo{
		Path:     s.cfg.Model.Path,
		Tags:     t.Tags,
		Fallback: s.cfg.Decode.FallbackTag,
		Words:    len(words),
		LoadedAt: loadedAt.UTC().Format(time.RFC3339),
	}
	if stored != nil {
		info.Name = s.cfg.Model.Name
		info.Stored = stored
	}
	return c.JSON(info)
}

func (s *Server) tag(c *fiber.Ctx) error {
	var req TagRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Text) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text is required")
	}
	d := s.fork()
	resp := TagResponse{RunID: d.RunID(), Sentences: []export.Annotation{}}
	var tagged []corpus.Sentence
	err := corpus.ReadRaw(strings.NewReader(req.Text), func(words []string) error {
		sentence, unseen := d.Decode(words)
		tagged = append(tagged, sentence)
		resp.Sentences = append(resp.Sentences, export.Annotate(sentence, unseen))
		return nil
	})
	if err != nil {
		return err
	}
	resp.Output = export.String(tagged)
	return c.JSON(resp)
}

// Watch reloads the model whenever its file changes, until ctx is done.
func (s *Server) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	path, err := filepath.Abs(s.cfg.Model.Path)
	if err != nil {
		return err
	}
	// editors and trainers often replace the file, so watch the directory
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("server: watch %s: %w", path, err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() { _ = s.Reload() })
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("model watcher error", slog.String("err", err.Error()))
		}
	}
}

// watchable reports whether the model is a single file worth watching. A
// SQLite file changes on every read, so it is never watched.
func (s *Server) watchable() bool {
	if s.cfg.Server.WatchModel == nil || !*s.cfg.Server.WatchModel {
		return false
	}
	opts, err := store.ConfigOptions(s.cfg.Model)
	if err != nil {
		return false
	}
	return store.FormatFor(s.cfg.Model.Path, opts...) != store.FormatSQLite
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.watchable() {
		go func() {
			if err := s.Watch(ctx); err != nil {
				s.logger.Warn("model watcher stopped", slog.String("err", err.Error()))
			}
		}()
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", s.cfg.Server.Address))
		errCh <- s.app.Listen(s.cfg.Server.Address)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}
