package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oarkflow/squealx"
	_ "modernc.org/sqlite"

	"github.com/pachpandenikhil/HMM/nlp/hmm"
)

var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS models (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS start_probability (
		model_id TEXT NOT NULL,
		tag TEXT NOT NULL,
		probability REAL NOT NULL,
		PRIMARY KEY (model_id, tag)
	)`,
	`CREATE TABLE IF NOT EXISTS transition_probability (
		model_id TEXT NOT NULL,
		src TEXT NOT NULL,
		dest TEXT NOT NULL,
		probability REAL NOT NULL,
		PRIMARY KEY (model_id, src, dest)
	)`,
	`CREATE TABLE IF NOT EXISTS emission_probability (
		model_id TEXT NOT NULL,
		tag TEXT NOT NULL,
		word TEXT NOT NULL,
		probability REAL NOT NULL,
		PRIMARY KEY (model_id, tag, word)
	)`,
}

// rows per INSERT statement
const batchSize = 200

type modelRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

type startRow struct {
	Tag         string  `db:"tag"`
	Probability float64 `db:"probability"`
}

type pairRow struct {
	Key         string  `db:"k"`
	Value       string  `db:"v"`
	Probability float64 `db:"probability"`
}

// SQLite keeps any number of named models in one database file.
type SQLite struct {
	db *squealx.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := squealx.Open("sqlite", path, "hmm")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	for _, stmt := range schemaSQL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: create schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Names lists the stored models.
func (s *SQLite) Names() ([]string, error) {
	var rows []modelRow
	if err := s.db.Select(&rows, "SELECT id, name, created_at FROM models ORDER BY name", nil); err != nil {
		return nil, err
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return names, nil
}

// namedDB is satisfied by both *squealx.DB and *squealx.Tx.
type namedDB interface {
	NamedExec(query string, arg any) (sql.Result, error)
}

func (s *SQLite) lookup(name string) (*modelRow, error) {
	var rows []modelRow
	err := s.db.Select(&rows, "SELECT id, name, created_at FROM models WHERE name = :name", map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return &rows[0], nil
}

// Delete removes the model stored under name. Missing models are ignored.
func (s *SQLite) Delete(name string) error {
	return s.inTx(func(tx *squealx.Tx) error {
		return deleteModel(tx, name)
	})
}

// Save stores m under name, replacing any model with the same name. The
// replacement is one transaction: on error the previous model is kept.
func (s *SQLite) Save(name string, m *hmm.Model) error {
	if err := checkFields(m); err != nil {
		return err
	}
	return s.inTx(func(tx *squealx.Tx) error {
		if err := deleteModel(tx, name); err != nil {
			return err
		}
		id := uuid.NewString()
		_, err := tx.NamedExec("INSERT INTO models (id, name, created_at) VALUES (:id, :name, :created_at)", map[string]any{
			"id":         id,
			"name":       name,
			"created_at": time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}

		var start [][]any
		for tag, p := range m.Start {
			start = append(start, []any{id, tag, p})
		}
		if err := insert(tx, "start_probability", []string{"model_id", "tag", "probability"}, start); err != nil {
			return err
		}
		if err := insert(tx, "transition_probability", []string{"model_id", "src", "dest", "probability"}, pairs(id, m.Transition)); err != nil {
			return err
		}
		return insert(tx, "emission_probability", []string{"model_id", "tag", "word", "probability"}, pairs(id, m.Emission))
	})
}

func (s *SQLite) inTx(fn func(tx *squealx.Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func deleteModel(tx *squealx.Tx, name string) error {
	var rows []modelRow
	err := tx.NamedSelect(&rows, "SELECT id, name, created_at FROM models WHERE name = :name", map[string]any{"name": name})
	if err != nil {
		return err
	}
	for _, row := range rows {
		params := map[string]any{"id": row.ID}
		for _, table := range []string{"start_probability", "transition_probability", "emission_probability", "models"} {
			col := "model_id"
			if table == "models" {
				col = "id"
			}
			if _, err := tx.NamedExec(fmt.Sprintf("DELETE FROM %s WHERE %s = :id", table, col), params); err != nil {
				return err
			}
		}
	}
	return nil
}

func pairs(id string, table map[string]map[string]float64) [][]any {
	var out [][]any
	for k, row := range table {
		for v, p := range row {
			out = append(out, []any{id, k, v, p})
		}
	}
	return out
}

// insert writes rows in batches using named parameters.
func insert(db namedDB, table string, cols []string, rows [][]any) error {
	for len(rows) > 0 {
		n := min(batchSize, len(rows))
		params := make(map[string]any, n*len(cols))
		values := make([]string, n)
		for i, row := range rows[:n] {
			names := make([]string, len(cols))
			for j, v := range row {
				key := cols[j] + strconv.Itoa(i)
				names[j] = ":" + key
				params[key] = v
			}
			values[i] = "(" + strings.Join(names, ", ") + ")"
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(cols, ", "), strings.Join(values, ", "))
		if _, err := db.NamedExec(query, params); err != nil {
			return fmt.Errorf("store: insert %s: %w", table, err)
		}
		rows = rows[n:]
	}
	return nil
}

// Load reads the model stored under name.
func (s *SQLite) Load(name string) (*hmm.Model, error) {
	row, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	params := map[string]any{"id": row.ID}

	var start []startRow
	if err := s.db.Select(&start, "SELECT tag, probability FROM start_probability WHERE model_id = :id", params); err != nil {
		return nil, err
	}
	if len(start) == 0 {
		return nil, fmt.Errorf("%w: missing start_probability", ErrFormat)
	}
	m := hmm.New()
	for _, r := range start {
		m.Start[r.Tag] = r.Probability
	}

	var trans []pairRow
	if err := s.db.Select(&trans, "SELECT src AS k, dest AS v, probability FROM transition_probability WHERE model_id = :id", params); err != nil {
		return nil, err
	}
	if len(trans) == 0 {
		return nil, fmt.Errorf("%w: missing transition_probability", ErrFormat)
	}
	fill(m.Transition, trans)

	var emit []pairRow
	if err := s.db.Select(&emit, "SELECT tag AS k, word AS v, probability FROM emission_probability WHERE model_id = :id", params); err != nil {
		return nil, err
	}
	fill(m.Emission, emit)
	return m, nil
}

func fill(table map[string]map[string]float64, rows []pairRow) {
	for _, r := range rows {
		row, ok := table[r.Key]
		if !ok {
			row = make(map[string]float64)
			table[r.Key] = row
		}
		row[r.Value] = r.Probability
	}
}

