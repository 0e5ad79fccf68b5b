// Package store persists trained models.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pachpandenikhil/HMM/nlp/config"
	"github.com/pachpandenikhil/HMM/nlp/hmm"
)

var (
	// ErrFormat is returned for a model document that is missing a required
	// field or cannot be decoded.
	ErrFormat = errors.New("store: malformed model document")
	// ErrNotFound is returned when a named model does not exist.
	ErrNotFound = errors.New("store: model not found")
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatSQLite  Format = "sqlite"
)

// DefaultName is the model name used in SQLite files.
const DefaultName = "default"

// FormatOf guesses the format from the file extension. Anything unknown is
// a JSON document.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mp":
		return FormatMsgpack
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	}
	return FormatJSON
}

// ParseFormat accepts an explicit format name. Empty means guess from path.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case "", FormatJSON, FormatMsgpack, FormatSQLite:
		return f, nil
	}
	return "", fmt.Errorf("store: unknown format %q", name)
}

type options struct {
	format Format
	name   string
}

type Option func(*options)

func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithName selects the model inside a SQLite file.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func resolve(path string, opts []Option) options {
	o := options{name: DefaultName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.format == "" {
		o.format = FormatOf(path)
	}
	if o.name == "" {
		o.name = DefaultName
	}
	return o
}

// Save writes m to path. The document is fully encoded before the file is
// touched.
func Save(path string, m *hmm.Model, opts ...Option) error {
	o := resolve(path, opts)
	var (
		data []byte
		err  error
	)
	switch o.format {
	case FormatSQLite:
		db, err := OpenSQLite(path)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Save(o.name, m)
	case FormatMsgpack:
		data, err = EncodeMsgpack(m)
	default:
		data, err = EncodeJSON(m)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads the model stored at path.
func Load(path string, opts ...Option) (*hmm.Model, error) {
	o := resolve(path, opts)
	if o.format == FormatSQLite {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.Load(o.name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if o.format == FormatMsgpack {
		return DecodeMsgpack(data)
	}
	return DecodeJSON(data)
}

// FormatFor is the format Save and Load use for path under opts.
func FormatFor(path string, opts ...Option) Format {
	return resolve(path, opts).format
}

// Names lists the models kept in the SQLite file at path. Single-model
// formats hold no names and return nil.
func Names(path string, opts ...Option) ([]string, error) {
	if FormatFor(path, opts...) != FormatSQLite {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Names()
}

func checkFields(m *hmm.Model) error {
	switch {
	case m.Start == nil:
		return fmt.Errorf("%w: missing start_probability", ErrFormat)
	case m.Transition == nil:
		return fmt.Errorf("%w: missing transition_probability", ErrFormat)
	case m.Emission == nil:
		return fmt.Errorf("%w: missing emission_probability", ErrFormat)
	}
	return nil
}

// ConfigOptions translates the model section of a config file.
func ConfigOptions(c config.Model) ([]Option, error) {
	f, err := ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}
	return []Option{WithFormat(f), WithName(c.Name)}, nil
}
