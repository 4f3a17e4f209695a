// Package store is the thin query layer over the SQL database. It
// keeps a statement counter and a query log per store, mirroring the
// diagnostics the site always exposed, and upgrades every statement to
// parameter binding.
package store

import (
	"database/sql"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type Store struct {
	db  *sql.DB
	log *zap.Logger

	mu      sync.Mutex
	counter int
	queries []string
}

func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, log: logger}
}

// DB exposes the underlying handle for lifecycle management.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) record(query string) {
	s.mu.Lock()
	s.counter++
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	s.log.Debug("query", zap.String("sql", query))
}

func (s *Store) Query(query string, args ...any) (*sql.Rows, error) {
	s.record(query)
	return s.db.Query(query, args...)
}

func (s *Store) QueryRow(query string, args ...any) *sql.Row {
	s.record(query)
	return s.db.QueryRow(query, args...)
}

func (s *Store) Exec(query string, args ...any) (sql.Result, error) {
	s.record(query)
	return s.db.Exec(query, args...)
}

// Counter reports how many statements this store has issued.
func (s *Store) Counter() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// Log returns a copy of the statements issued so far.
func (s *Store) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queries))
	copy(out, s.queries)
	return out
}

// EscapeLike escapes LIKE metacharacters in user input so a pattern
// built from it matches literally. Callers must pass ESCAPE '\'.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
