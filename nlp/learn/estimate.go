package learn

import "github.com/pachpandenikhil/HMM/nlp/hmm"

// Estimate converts c into a model. Start and transition use add-one
// smoothing over the tag vocabulary; emission is the unsmoothed maximum
// likelihood estimate.
func (c *Counts) Estimate() *hmm.Model {
	m := hmm.New()
	tags := c.TagList()
	vocab := float64(len(tags))

	startBase := float64(c.Sentences) + vocab
	for _, tag := range tags {
		m.Start[tag] = float64(c.Start[tag]+1) / startBase
	}

	for _, src := range tags {
		outgoing := c.Transition[src]
		total := 0
		for _, n := range outgoing {
			total += n
		}
		base := float64(total) + vocab
		row := make(map[string]float64, len(tags))
		for _, dest := range tags {
			row[dest] = float64(outgoing[dest]+1) / base
		}
		m.Transition[src] = row
	}

	for tag, words := range c.Emission {
		total := float64(c.Tag[tag])
		emit := make(map[string]float64, len(words))
		for word, n := range words {
			emit[word] = float64(n) / total
		}
		m.Emission[tag] = emit
	}
	return m
}
