package learn

import (
	"sort"

	"github.com/pachpandenikhil/HMM/nlp/corpus"
)

// Counts holds the frequencies gathered from a tagged corpus.
type Counts struct {
	Sentences  int
	Tags       map[string]struct{}
	Start      map[string]int
	Tag        map[string]int
	Transition map[string]map[string]int
	Emission   map[string]map[string]int
}

// NewCounts returns empty counts.
func NewCounts() *Counts {
	return &Counts{
		Tags:       make(map[string]struct{}),
		Start:      make(map[string]int),
		Tag:        make(map[string]int),
		Transition: make(map[string]map[string]int),
		Emission:   make(map[string]map[string]int),
	}
}

// Add accumulates one sentence. The first token counts as a sentence start;
// every following token counts as a transition from its predecessor.
func (c *Counts) Add(s corpus.Sentence) {
	if len(s) == 0 {
		return
	}
	c.Sentences++
	first := s[0]
	c.Start[first.Tag]++
	c.observe(first)
	for i := 1; i < len(s); i++ {
		src, dest := s[i-1].Tag, s[i].Tag
		row, ok := c.Transition[src]
		if !ok {
			row = make(map[string]int)
			c.Transition[src] = row
		}
		row[dest]++
		c.observe(s[i])
	}
}

func (c *Counts) observe(tok corpus.Token) {
	c.Tags[tok.Tag] = struct{}{}
	c.Tag[tok.Tag]++
	emit, ok := c.Emission[tok.Tag]
	if !ok {
		emit = make(map[string]int)
		c.Emission[tok.Tag] = emit
	}
	emit[tok.Word]++
}

// TagList returns the tag vocabulary sorted by name.
func (c *Counts) TagList() []string {
	tags := make([]string, 0, len(c.Tags))
	for tag := range c.Tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
