package learn

import (
	"io"

	"github.com/pachpandenikhil/HMM/nlp/corpus"
	"github.com/pachpandenikhil/HMM/nlp/hmm"
	"github.com/pachpandenikhil/HMM/nlp/metrics"
	"github.com/pachpandenikhil/HMM/nlp/normalizer"
)

// Options tunes Train.
type Options struct {
	// Normalize is applied to every word before counting. Nil means identity.
	Normalize normalizer.Func
	Metrics   *metrics.Metrics
}

// Train reads a tagged corpus from r and returns the estimated model along
// with the counts it was built from.
func Train(r io.Reader, opts Options) (*hmm.Model, *Counts, error) {
	norm := opts.Normalize
	if norm == nil {
		norm = normalizer.Identity
	}
	c := NewCounts()
	err := corpus.ReadTagged(r, func(s corpus.Sentence) error {
		for i := range s {
			s[i].Word = norm(s[i].Word)
		}
		c.Add(s)
		opts.Metrics.Trained(1)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return c.Estimate(), c, nil
}
