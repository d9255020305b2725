// Package cachestore provides persistent arangorest.Cache implementations.
//
// The SQLite store keeps revalidation entries across process restarts, so a
// restarted service can still answer conditional reads with 304s instead of
// refetching every document.
//
// Example:
//
//	store, err := cachestore.OpenSQLite("cache.db", arangorest.DefaultCacheConfig())
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	docs := document.NewClient(client, document.WithCache(store))
package cachestore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/arangorest/arangorest-go"
)

const schema = `
CREATE TABLE IF NOT EXISTS cached_responses (
	key        TEXT PRIMARY KEY,
	status     INTEGER NOT NULL,
	header     TEXT NOT NULL,
	body       BLOB,
	etag       TEXT NOT NULL,
	stored_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS cached_responses_stored_at ON cached_responses (stored_at);
`

// entry is one row of cached_responses.
type entry struct {
	Key       string `db:"key"`
	Status    int    `db:"status"`
	Header    string `db:"header"`
	Body      []byte `db:"body"`
	ETag      string `db:"etag"`
	StoredAt  int64  `db:"stored_at"`
	ExpiresAt int64  `db:"expires_at"`
}

// SQLite is an arangorest.Cache stored in a SQLite database.
type SQLite struct {
	db         *sqlx.DB
	maxEntries int
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

var _ arangorest.Cache = (*SQLite)(nil)

// Option configures a SQLite store.
type Option func(*SQLite)

// WithLogger sets the logger used to report storage errors. The Cache
// interface has no error returns, so failures are logged and treated as
// misses.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLite) {
		s.logger = logger
	}
}

// OpenSQLite opens (or creates) a cache database at dsn. Use ":memory:" for
// a throwaway store.
func OpenSQLite(dsn string, config arangorest.CacheConfig, opts ...Option) (*SQLite, error) {
	if dsn == "" {
		return nil, &arangorest.ConfigError{Field: "dsn", Message: "required"}
	}
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers, which SQLite requires anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	s := &SQLite{
		db:         db,
		maxEntries: config.MaxEntries,
		ttl:        config.TTL,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get returns a stored response that has not expired.
func (s *SQLite) Get(key string) (*arangorest.Response, bool) {
	var e entry
	err := s.db.Get(&e, `SELECT * FROM cached_responses WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("cachestore: get", "key", key, "error", err)
		return nil, false
	}
	if s.ttl > 0 && s.now().UnixNano() > e.ExpiresAt {
		s.Delete(key)
		return nil, false
	}

	header := make(http.Header)
	if err := json.Unmarshal([]byte(e.Header), &header); err != nil {
		s.logger.Warn("cachestore: corrupt header", "key", key, "error", err)
		s.Delete(key)
		return nil, false
	}
	resp, err := arangorest.NewResponse(e.Status, header, e.Body)
	if err != nil {
		s.Delete(key)
		return nil, false
	}
	return resp, true
}

// Set stores a response. Responses without an ETag are not stored.
func (s *SQLite) Set(key string, resp *arangorest.Response) {
	if resp == nil || resp.ETag() == "" {
		return
	}
	header, err := json.Marshal(resp.Header)
	if err != nil {
		s.logger.Warn("cachestore: encode header", "key", key, "error", err)
		return
	}

	now := s.now()
	e := entry{
		Key:       key,
		Status:    resp.StatusCode,
		Header:    string(header),
		Body:      resp.Body,
		ETag:      resp.ETag(),
		StoredAt:  now.UnixNano(),
		ExpiresAt: now.Add(s.ttl).UnixNano(),
	}

	tx, err := s.db.Beginx()
	if err != nil {
		s.logger.Warn("cachestore: begin", "key", key, "error", err)
		return
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`
		INSERT INTO cached_responses (key, status, header, body, etag, stored_at, expires_at)
		VALUES (:key, :status, :header, :body, :etag, :stored_at, :expires_at)
		ON CONFLICT (key) DO UPDATE SET
			status = excluded.status, header = excluded.header, body = excluded.body,
			etag = excluded.etag, stored_at = excluded.stored_at, expires_at = excluded.expires_at`, e); err != nil {
		s.logger.Warn("cachestore: store", "key", key, "error", err)
		return
	}
	if err := s.evict(tx, now); err != nil {
		s.logger.Warn("cachestore: evict", "error", err)
		return
	}
	if err := tx.Commit(); err != nil {
		s.logger.Warn("cachestore: commit", "key", key, "error", err)
	}
}

// evict drops expired rows, then the oldest rows beyond maxEntries.
func (s *SQLite) evict(tx *sqlx.Tx, now time.Time) error {
	if s.ttl > 0 {
		if _, err := tx.Exec(`DELETE FROM cached_responses WHERE expires_at < $1`, now.UnixNano()); err != nil {
			return err
		}
	}
	if s.maxEntries <= 0 {
		return nil
	}
	_, err := tx.Exec(`
		DELETE FROM cached_responses WHERE key IN (
			SELECT key FROM cached_responses ORDER BY stored_at DESC LIMIT -1 OFFSET $1
		)`, s.maxEntries)
	return err
}

// Delete removes a stored response.
func (s *SQLite) Delete(key string) {
	if _, err := s.db.Exec(`DELETE FROM cached_responses WHERE key = $1`, key); err != nil {
		s.logger.Warn("cachestore: delete", "key", key, "error", err)
	}
}

// Clear removes all stored responses.
func (s *SQLite) Clear() {
	if _, err := s.db.Exec(`DELETE FROM cached_responses`); err != nil {
		s.logger.Warn("cachestore: clear", "error", err)
	}
}

// Len reports the number of stored responses, expired ones included.
func (s *SQLite) Len() (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM cached_responses`)
	return n, err
}
