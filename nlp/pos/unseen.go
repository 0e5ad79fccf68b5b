package pos

import (
	"errors"
	"fmt"

	"github.com/pachpandenikhil/HMM/nlp/hmm"
)

// DefaultFallback is the proper-noun tag unseen words are assigned to.
const DefaultFallback = "NP"

// ErrUnknownTag is returned when the fallback tag is not in the vocabulary.
var ErrUnknownTag = errors.New("pos: tag not in model vocabulary")

// Resolver injects unseen words into the emission table of the fallback tag.
//
// This is the only place a decoding run writes to its tables. Injected words
// stay for the rest of the run, so a word is flagged unseen at most once.
type Resolver struct {
	tables   *hmm.Tables
	fallback int
}

// NewResolver returns a resolver writing into t under tag.
func NewResolver(t *hmm.Tables, tag string) (*Resolver, error) {
	id, ok := t.Index(tag)
	if !ok {
		return nil, fmt.Errorf("%w: fallback %q", ErrUnknownTag, tag)
	}
	return &Resolver{tables: t, fallback: id}, nil
}

// Fallback returns the id of the fallback tag.
func (r *Resolver) Fallback() int { return r.fallback }

// Resolve marks every word of obs that no tag emits as emitted by the
// fallback tag with probability 1. It returns the injected words in order of
// first appearance.
func (r *Resolver) Resolve(obs []string) []string {
	var unseen []string
	for _, word := range obs {
		if r.tables.Known(word) {
			continue
		}
		r.tables.Emission[r.fallback][word] = 1
		unseen = append(unseen, word)
	}
	return unseen
}
