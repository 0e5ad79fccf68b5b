package hmm

// Tables is the tag-indexed form of a Model used while decoding. Tag ids
// follow the sorted order of Model.Tags, which is also the tie-break order of
// the decoder.
//
// Start and Transition are read-only. Emission is the mutable store of a
// decoding run: the unseen-word resolver writes into it and nothing else does.
type Tables struct {
	Tags       []string
	Start      []float64
	Transition [][]float64
	Emission   []map[string]float64

	index map[string]int
}

// Compile builds dense tables from m. Emission maps are copied so the run
// never writes into m.
func Compile(m *Model) (*Tables, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	tags := m.Tags()
	t := &Tables{
		Tags:       tags,
		Start:      make([]float64, len(tags)),
		Transition: make([][]float64, len(tags)),
		Emission:   make([]map[string]float64, len(tags)),
		index:      make(map[string]int, len(tags)),
	}
	for i, tag := range tags {
		t.index[tag] = i
	}
	for i, src := range tags {
		t.Start[i] = m.Start[src]
		row := make([]float64, len(tags))
		for j, dest := range tags {
			row[j] = m.Transition[src][dest]
		}
		t.Transition[i] = row
		emit := make(map[string]float64, len(m.Emission[src]))
		for word, p := range m.Emission[src] {
			emit[word] = p
		}
		t.Emission[i] = emit
	}
	return t, nil
}

// Index returns the id of tag.
func (t *Tables) Index(tag string) (int, bool) {
	i, ok := t.index[tag]
	return i, ok
}

// Known reports whether any tag emits word.
func (t *Tables) Known(word string) bool {
	for _, emit := range t.Emission {
		if _, ok := emit[word]; ok {
			return true
		}
	}
	return false
}

// Clone returns tables sharing the read-only parts of t. The emission map of
// the tag with id owned is copied, so writes to it stay private to the clone.
func (t *Tables) Clone(owned int) *Tables {
	c := *t
	c.Emission = make([]map[string]float64, len(t.Emission))
	copy(c.Emission, t.Emission)
	if owned >= 0 && owned < len(c.Emission) {
		emit := make(map[string]float64, len(t.Emission[owned]))
		for word, p := range t.Emission[owned] {
			emit[word] = p
		}
		c.Emission[owned] = emit
	}
	return &c
}
