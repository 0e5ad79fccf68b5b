package hmm

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNotDense is returned when a start or transition entry is missing for
	// a pair of tags in the vocabulary.
	ErrNotDense = errors.New("hmm: probability table is not dense")
	// ErrEmpty is returned for a model without any tag.
	ErrEmpty = errors.New("hmm: model has no tags")
)

// Model is the persisted form of a trained HMM.
type Model struct {
	Start      map[string]float64            `json:"start_probability" msgpack:"start_probability"`
	Transition map[string]map[string]float64 `json:"transition_probability" msgpack:"transition_probability"`
	Emission   map[string]map[string]float64 `json:"emission_probability" msgpack:"emission_probability"`
}

// New returns an empty model.
func New() *Model {
	return &Model{
		Start:      make(map[string]float64),
		Transition: make(map[string]map[string]float64),
		Emission:   make(map[string]map[string]float64),
	}
}

// Tags returns the tag vocabulary sorted by name. The vocabulary is the key
// set of the transition table.
func (m *Model) Tags() []string {
	tags := make([]string, 0, len(m.Transition))
	for tag := range m.Transition {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Validate checks that start and transition are dense over the vocabulary.
func (m *Model) Validate() error {
	tags := m.Tags()
	if len(tags) == 0 {
		return ErrEmpty
	}
	for _, src := range tags {
		if _, ok := m.Start[src]; !ok {
			return fmt.Errorf("%w: no start probability for %q", ErrNotDense, src)
		}
		row := m.Transition[src]
		for _, dest := range tags {
			if _, ok := row[dest]; !ok {
				return fmt.Errorf("%w: no transition %q -> %q", ErrNotDense, src, dest)
			}
		}
	}
	return nil
}
