package pos

import (
	"math"

	"github.com/pachpandenikhil/HMM/nlp/hmm"
)

// MinLog stands in for log(0). Every impossible step scores the same, so
// paths through different zero probabilities tie.
var MinLog = math.Log(1e-16)

func logP(p float64) float64 {
	if p == 0 {
		return MinLog
	}
	return math.Log(p)
}

// Viterbi returns the tag ids of the most probable tag sequence for obs.
// Ties are broken by the lowest tag id.
func Viterbi(t *hmm.Tables, obs []string) []int {
	if len(obs) == 0 || len(t.Tags) == 0 {
		return []int{}
	}
	n := len(t.Tags)
	score := make([]float64, n)
	next := make([]float64, n)
	back := make([][]int, len(obs))

	for tag := 0; tag < n; tag++ {
		score[tag] = logP(t.Start[tag]) + logP(t.Emission[tag][obs[0]])
	}

	for i := 1; i < len(obs); i++ {
		back[i] = make([]int, n)
		for tag := 0; tag < n; tag++ {
			prev := 0
			best := score[0] + logP(t.Transition[0][tag])
			for p := 1; p < n; p++ {
				if s := score[p] + logP(t.Transition[p][tag]); s > best {
					best, prev = s, p
				}
			}
			next[tag] = best + logP(t.Emission[tag][obs[i]])
			back[i][tag] = prev
		}
		score, next = next, score
	}

	last := 0
	for tag := 1; tag < n; tag++ {
		if score[tag] > score[last] {
			last = tag
		}
	}

	path := make([]int, len(obs))
	path[len(obs)-1] = last
	for i := len(obs) - 1; i > 0; i-- {
		path[i-1] = back[i][path[i]]
	}
	return path
}

// Tag is Viterbi with tag names.
func Tag(t *hmm.Tables, obs []string) []string {
	path := Viterbi(t, obs)
	out := make([]string, len(path))
	for i, id := range path {
		out[i] = t.Tags[id]
	}
	return out
}
