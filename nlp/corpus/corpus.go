package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// TagWidth is the number of characters a tag occupies at the end of a field.
// It is a property of the corpus encoding and is not configurable.
const TagWidth = 2

// minField is separator + tag.
const minField = TagWidth + 1

// ErrFormat is returned for a field too short to hold a separator and a tag.
var ErrFormat = errors.New("corpus: malformed token")

// Token is a word with its tag.
type Token struct {
	Word string
	Tag  string
}

// Sentence is one line of the training corpus.
type Sentence []Token

// Words returns the words of s in order.
func (s Sentence) Words() []string {
	out := make([]string, len(s))
	for i, tok := range s {
		out[i] = tok.Word
	}
	return out
}

// ParseToken splits field into word and tag. The last TagWidth characters
// are the tag and the character before them is the separator, which is not
// checked. Both parts keep the bytes of field as they are.
func ParseToken(field string) (Token, error) {
	end, tag := len(field), 0
	for i := 0; i < minField; i++ {
		if end == 0 {
			return Token{}, fmt.Errorf("%w: %q", ErrFormat, field)
		}
		_, size := utf8.DecodeLastRuneInString(field[:end])
		end -= size
		if i == TagWidth-1 {
			tag = end
		}
	}
	return Token{Word: field[:end], Tag: field[tag:]}, nil
}

// ParseSentence parses every whitespace separated field of line.
func ParseSentence(line string) (Sentence, error) {
	return parseFields(strings.Fields(line))
}

func parseFields(fields []string) (Sentence, error) {
	s := make(Sentence, 0, len(fields))
	for _, f := range fields {
		tok, err := ParseToken(f)
		if err != nil {
			return nil, err
		}
		s = append(s, tok)
	}
	return s, nil
}

// ReadTagged calls fn for every non-blank line of r parsed as a sentence.
func ReadTagged(r io.Reader, fn func(Sentence) error) error {
	return scanLines(r, func(n int, fields []string) error {
		s, err := parseFields(fields)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		return fn(s)
	})
}

// ReadRaw calls fn with the words of every non-blank line of r.
func ReadRaw(r io.Reader, fn func([]string) error) error {
	return scanLines(r, func(_ int, fields []string) error {
		return fn(fields)
	})
}

func scanLines(r io.Reader, handler func(int, []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := handler(n, fields); err != nil {
			return err
		}
	}
	return scanner.Err()
}
