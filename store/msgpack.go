package store

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pachpandenikhil/HMM/nlp/hmm"
)

// EncodeMsgpack renders m as a msgpack document with the same field names
// as the JSON document.
func EncodeMsgpack(m *hmm.Model) ([]byte, error) {
	return msgpack.Marshal(m)
}

func DecodeMsgpack(data []byte) (*hmm.Model, error) {
	var m hmm.Model
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if err := checkFields(&m); err != nil {
		return nil, err
	}
	return &m, nil
}
