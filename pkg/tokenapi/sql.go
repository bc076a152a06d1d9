package tokenapi

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLAPI is a SQL-backed token backend. It works with any database/sql
// compatible driver (PostgreSQL, MySQL, SQLite). Requires a table with
// schema:
//
//	CREATE TABLE liveguard_tokens (
//	    token VARCHAR(64) PRIMARY KEY,
//	    username VARCHAR(255) NOT NULL,
//	    expires_at_ms BIGINT NOT NULL
//	);
//	CREATE INDEX idx_liveguard_tokens_expires ON liveguard_tokens(expires_at_ms);
//
// Expiry is stored as unix milliseconds so the schema and queries are
// identical across dialects.
type SQLAPI struct {
	creds           Credentials
	db              *sql.DB
	tableName       string
	dialect         SQLDialect
	ttl             time.Duration
	cleanupInterval time.Duration
	closed          bool
	done            chan struct{}

	// now is swapped in tests to control expiry.
	now func() time.Time
}

// SQLDialect represents the SQL dialect for query generation.
type SQLDialect int

const (
	// DialectPostgreSQL uses PostgreSQL syntax ($1, $2 placeholders).
	DialectPostgreSQL SQLDialect = iota
	// DialectMySQL uses MySQL syntax (? placeholders).
	DialectMySQL
	// DialectSQLite uses SQLite syntax (? placeholders).
	DialectSQLite
)

// SQLOption configures SQLAPI behavior.
type SQLOption func(*sqlConfig)

type sqlConfig struct {
	tableName       string
	dialect         SQLDialect
	ttl             time.Duration
	cleanupInterval time.Duration
}

// WithSQLTableName sets the table name for token storage.
// Default: "liveguard_tokens".
func WithSQLTableName(name string) SQLOption {
	return func(c *sqlConfig) {
		c.tableName = name
	}
}

// WithSQLDialect sets the SQL dialect for query generation.
// Default: DialectPostgreSQL.
func WithSQLDialect(dialect SQLDialect) SQLOption {
	return func(c *sqlConfig) {
		c.dialect = dialect
	}
}

// WithSQLTokenTTL sets how long an untouched token stays valid.
// Each successful Status check slides the expiry forward.
// Default: 30 minutes.
func WithSQLTokenTTL(d time.Duration) SQLOption {
	return func(c *sqlConfig) {
		c.ttl = d
	}
}

// WithSQLCleanupInterval sets how often expired tokens are purged.
// Default: 5 minutes.
func WithSQLCleanupInterval(d time.Duration) SQLOption {
	return func(c *sqlConfig) {
		c.cleanupInterval = d
	}
}

// NewSQLAPI creates a SQL-backed token backend.
func NewSQLAPI(creds Credentials, db *sql.DB, opts ...SQLOption) *SQLAPI {
	cfg := &sqlConfig{
		tableName:       "liveguard_tokens",
		dialect:         DialectPostgreSQL,
		ttl:             30 * time.Minute,
		cleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	api := &SQLAPI{
		creds:           creds,
		db:              db,
		tableName:       cfg.tableName,
		dialect:         cfg.dialect,
		ttl:             cfg.ttl,
		cleanupInterval: cfg.cleanupInterval,
		done:            make(chan struct{}),
		now:             time.Now,
	}

	go api.cleanupLoop()
	return api
}

// placeholder returns the placeholder syntax for the dialect.
func (s *SQLAPI) placeholder(n int) string {
	switch s.dialect {
	case DialectPostgreSQL:
		return fmt.Sprintf("$%d", n)
	default:
		return "?"
	}
}

// IssueToken verifies the credentials and inserts a fresh token row.
func (s *SQLAPI) IssueToken(ctx context.Context, username, password string) (string, error) {
	if s.closed {
		return "", ErrAPIClosed
	}

	ok, err := s.creds.Verify(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	token := newToken()
	query := fmt.Sprintf(`INSERT INTO %s (token, username, expires_at_ms) VALUES (%s, %s, %s)`,
		s.tableName, s.placeholder(1), s.placeholder(2), s.placeholder(3))

	if _, err := s.db.ExecContext(ctx, query, token, username, s.expiry()); err != nil {
		return "", err
	}
	return token, nil
}

// Status returns the token if its row exists and hasn't expired, sliding
// the expiry forward.
func (s *SQLAPI) Status(ctx context.Context, token string) (string, error) {
	if s.closed {
		return "", ErrAPIClosed
	}

	query := fmt.Sprintf(`SELECT username FROM %s WHERE token = %s AND expires_at_ms > %s`,
		s.tableName, s.placeholder(1), s.placeholder(2))

	var username string
	err := s.db.QueryRowContext(ctx, query, token, s.nowMillis()).Scan(&username)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}

	touch := fmt.Sprintf(`UPDATE %s SET expires_at_ms = %s WHERE token = %s`,
		s.tableName, s.placeholder(1), s.placeholder(2))
	if _, err := s.db.ExecContext(ctx, touch, s.expiry(), token); err != nil {
		return "", err
	}
	return token, nil
}

// Revoke deletes the token row. Unknown tokens are ignored.
func (s *SQLAPI) Revoke(ctx context.Context, token string) error {
	if s.closed {
		return ErrAPIClosed
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE token = %s`, s.tableName, s.placeholder(1))
	_, err := s.db.ExecContext(ctx, query, token)
	return err
}

// Close stops the cleanup loop. It does not close the underlying database
// connection, which may be shared with other components.
func (s *SQLAPI) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true
	close(s.done)
	return nil
}

func (s *SQLAPI) nowMillis() int64 {
	return s.now().UnixMilli()
}

func (s *SQLAPI) expiry() int64 {
	return s.now().Add(s.ttl).UnixMilli()
}

// cleanupLoop periodically removes expired tokens.
func (s *SQLAPI) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

// cleanup removes expired tokens from the database.
func (s *SQLAPI) cleanup() {
	if s.closed {
		return
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at_ms < %s`, s.tableName, s.placeholder(1))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.db.ExecContext(ctx, query, s.nowMillis())
}

// CreateTable creates the token table if it doesn't exist.
// This is a convenience method for development/testing.
func (s *SQLAPI) CreateTable(ctx context.Context) error {
	var query string
	switch s.dialect {
	case DialectPostgreSQL:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				token VARCHAR(64) PRIMARY KEY,
				username VARCHAR(255) NOT NULL,
				expires_at_ms BIGINT NOT NULL
			)
		`, s.tableName)
	case DialectMySQL:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				token VARCHAR(64) PRIMARY KEY,
				username VARCHAR(255) NOT NULL,
				expires_at_ms BIGINT NOT NULL
			)
		`, s.tableName)
	case DialectSQLite:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				token TEXT PRIMARY KEY,
				username TEXT NOT NULL,
				expires_at_ms INTEGER NOT NULL
			)
		`, s.tableName)
	}

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return err
	}

	var indexQuery string
	switch s.dialect {
	case DialectPostgreSQL, DialectSQLite:
		indexQuery = fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_expires ON %s(expires_at_ms)`,
			s.tableName, s.tableName)
	case DialectMySQL:
		// MySQL has no IF NOT EXISTS for indexes; create and ignore the error.
		indexQuery = fmt.Sprintf(`CREATE INDEX idx_%s_expires ON %s(expires_at_ms)`,
			s.tableName, s.tableName)
	}

	s.db.ExecContext(ctx, indexQuery)
	return nil
}
