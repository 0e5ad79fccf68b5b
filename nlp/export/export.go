package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/pachpandenikhil/HMM/nlp/corpus"
)

// Separator joins a word and its tag in output tokens.
const Separator = "/"

// Annotation is the JSON view of one decoded sentence.
type Annotation struct {
	Tokens []string `json:"tokens"`
	Tags   []string `json:"tags"`
	Unseen []string `json:"unseen,omitempty"`
	Line   string   `json:"line"`
}

// Format renders s as space separated word/tag tokens.
func Format(s corpus.Sentence) string {
	var sb strings.Builder
	for i, tok := range s {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Word)
		sb.WriteString(Separator)
		sb.WriteString(tok.Tag)
	}
	return sb.String()
}

// Write writes one line per sentence. Lines are separated by a newline and
// the last line has no terminator.
func Write(w io.Writer, sentences []corpus.Sentence) error {
	bw := bufio.NewWriter(w)
	for i, s := range sentences {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(Format(s)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String is Write into a string.
func String(sentences []corpus.Sentence) string {
	var sb strings.Builder
	_ = Write(&sb, sentences)
	return sb.String()
}

// Annotate builds the JSON view of s.
func Annotate(s corpus.Sentence, unseen []string) Annotation {
	a := Annotation{
		Tokens: s.Words(),
		Tags:   make([]string, len(s)),
		Unseen: unseen,
		Line:   Format(s),
	}
	for i, tok := range s {
		a.Tags[i] = tok.Tag
	}
	return a
}
