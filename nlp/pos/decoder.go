package pos

import (
	"io"
	"log/slog"

	"github.com/oarkflow/xid"

	"github.com/pachpandenikhil/HMM/nlp/corpus"
	"github.com/pachpandenikhil/HMM/nlp/hmm"
	"github.com/pachpandenikhil/HMM/nlp/metrics"
	"github.com/pachpandenikhil/HMM/nlp/normalizer"
)

// Decoder tags sentences of one decoding run. Sentences must be decoded one
// after another: each may add unseen words that later ones observe.
type Decoder struct {
	runID     string
	tables    *hmm.Tables
	resolver  *Resolver
	normalize normalizer.Func
	metrics   *metrics.Metrics
	base      *slog.Logger
	logger    *slog.Logger
}

type Option func(*Decoder)

// WithNormalizer maps words before lookup. Output keeps the original words.
func WithNormalizer(fn normalizer.Func) Option {
	return func(d *Decoder) {
		if fn != nil {
			d.normalize = fn
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Decoder) { d.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.base = l
		}
	}
}

// NewDecoder starts a run over t. The run writes unseen words into t.
func NewDecoder(t *hmm.Tables, fallback string, opts ...Option) (*Decoder, error) {
	r, err := NewResolver(t, fallback)
	if err != nil {
		return nil, err
	}
	d := &Decoder{
		tables:    t,
		resolver:  r,
		normalize: normalizer.Identity,
		base:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.start()
	return d, nil
}

// NewModelDecoder compiles m and starts a run over the compiled tables.
func NewModelDecoder(m *hmm.Model, fallback string, opts ...Option) (*Decoder, error) {
	t, err := hmm.Compile(m)
	if err != nil {
		return nil, err
	}
	return NewDecoder(t, fallback, opts...)
}

func (d *Decoder) start() {
	d.runID = xid.New().String()
	d.logger = d.base.With(slog.String("run", d.runID))
}

// Fork starts a new run on a private copy of the tables, including every
// word injected so far. d is left untouched.
func (d *Decoder) Fork() *Decoder {
	t := d.tables.Clone(d.resolver.Fallback())
	f := *d
	f.tables = t
	f.resolver = &Resolver{tables: t, fallback: d.resolver.Fallback()}
	f.start()
	return &f
}

func (d *Decoder) RunID() string { return d.runID }

// Tables returns the tables of the run.
func (d *Decoder) Tables() *hmm.Tables { return d.tables }

// Decode tags words and returns the tagged sentence and the words that were
// unseen before this call.
func (d *Decoder) Decode(words []string) (corpus.Sentence, []string) {
	obs := normalizer.Words(d.normalize, words)
	unseen := d.resolver.Resolve(obs)
	for _, w := range unseen {
		d.logger.Debug("unseen word", slog.String("word", w), slog.String("tag", d.tables.Tags[d.resolver.Fallback()]))
	}
	tags := Tag(d.tables, obs)
	out := make(corpus.Sentence, len(words))
	for i, w := range words {
		out[i] = corpus.Token{Word: w, Tag: tags[i]}
	}
	d.metrics.Decoded(len(words), len(unseen))
	return out, unseen
}

// Run decodes every non-blank line of r. On error nothing is returned.
func (d *Decoder) Run(r io.Reader) ([]corpus.Sentence, error) {
	var (
		out    []corpus.Sentence
		unseen int
	)
	err := corpus.ReadRaw(r, func(words []string) error {
		s, u := d.Decode(words)
		out = append(out, s)
		unseen += len(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.logger.Info("decoding run finished", slog.Int("sentences", len(out)), slog.Int("unseen", unseen))
	return out, nil
}
