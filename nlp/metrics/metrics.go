package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the counters of a trainer or decoder process. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	SentencesTrained prometheus.Counter
	SentencesDecoded prometheus.Counter
	TokensDecoded    prometheus.Counter
	UnseenWords      prometheus.Counter
	ModelReloads     *prometheus.CounterVec
}

// New creates the counters and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		SentencesTrained: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hmm_sentences_trained_total",
			Help: "Total number of corpus sentences counted during training.",
		}),
		SentencesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hmm_sentences_decoded_total",
			Help: "Total number of sentences tagged by the decoder.",
		}),
		TokensDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hmm_tokens_decoded_total",
			Help: "Total number of words tagged by the decoder.",
		}),
		UnseenWords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hmm_unseen_words_total",
			Help: "Total number of unseen words injected under the fallback tag.",
		}),
		ModelReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hmm_model_reloads_total",
				Help: "Total number of model reload attempts.",
			},
			[]string{"result"},
		),
	}
	m.Registry.MustRegister(m.SentencesTrained, m.SentencesDecoded, m.TokensDecoded, m.UnseenWords, m.ModelReloads)
	return m
}

func (m *Metrics) Trained(sentences int) {
	if m == nil {
		return
	}
	m.SentencesTrained.Add(float64(sentences))
}

func (m *Metrics) Decoded(tokens, unseen int) {
	if m == nil {
		return
	}
	m.SentencesDecoded.Inc()
	m.TokensDecoded.Add(float64(tokens))
	m.UnseenWords.Add(float64(unseen))
}

func (m *Metrics) Reloaded(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ModelReloads.WithLabelValues(result).Inc()
}
