package stats

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/keyforge/dispatch/internal/output"
)

const schema = `
CREATE TABLE IF NOT EXISTS builds (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	client_addr  TEXT    NOT NULL,
	user_agent   TEXT    NOT NULL,
	fingerprint  TEXT    NOT NULL,
	board        TEXT    NOT NULL,
	layout       TEXT    NOT NULL,
	layers       INTEGER NOT NULL,
	container    TEXT    NOT NULL,
	success      INTEGER NOT NULL,
	joined       INTEGER NOT NULL,
	requested_at INTEGER NOT NULL,
	duration_ms  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS builds_fingerprint ON builds(fingerprint);
`

var pragmas = []string{
	"PRAGMA busy_timeout=5000",
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
}

// SQLiteSink stores records in a SQLite database.
type SQLiteSink struct {
	pool   *sqlitex.Pool
	logger *log.Logger
	path   string
}

var _ Sink = (*SQLiteSink)(nil)

// OpenSQLite opens or creates the database at path. The parent directory
// is created if needed.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if path == "" {
		return nil, fmt.Errorf("stats: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("stats: creating database directory: %w", err)
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize:    4,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("stats: opening %s: %w", path, err)
	}

	logger := output.Logger().WithPrefix("stats")
	logger.Debug("stats database opened", "path", path)
	return &SQLiteSink{pool: pool, logger: logger, path: path}, nil
}

func prepareConnection(conn *sqlite.Conn) error {
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("stats: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("stats: creating schema: %w", err)
	}
	return nil
}

// Record implements Sink.
func (s *SQLiteSink) Record(ctx context.Context, r Record) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("stats: take: %w", err)
	}
	defer s.pool.Put(conn)

	return sqlitex.Execute(conn, `
INSERT INTO builds (client_addr, user_agent, fingerprint, board, layout, layers,
	container, success, joined, requested_at, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
		Args: []any{
			r.ClientAddr,
			r.UserAgent,
			r.Fingerprint,
			r.Board,
			r.Layout,
			r.Layers,
			r.Container,
			r.Success,
			r.Joined,
			r.RequestedAt.UnixMilli(),
			r.Duration.Milliseconds(),
		},
	})
}

// Count returns the number of stored records.
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("stats: take: %w", err)
	}
	defer s.pool.Put(conn)

	n, err := sqlitex.ResultInt(conn.Prep("SELECT count(*) FROM builds"))
	if err != nil {
		return 0, fmt.Errorf("stats: count: %w", err)
	}
	return n, nil
}

// Summary holds aggregate counts over all records.
type Summary struct {
	Requests  int            `json:"requests" yaml:"requests"`
	Successes int            `json:"successes" yaml:"successes"`
	Joined    int            `json:"joined" yaml:"joined"`
	Boards    map[string]int `json:"boards" yaml:"boards"`
}

// Summarize aggregates stored records.
func (s *SQLiteSink) Summarize(ctx context.Context) (Summary, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("stats: take: %w", err)
	}
	defer s.pool.Put(conn)

	sum := Summary{Boards: map[string]int{}}
	err = sqlitex.Execute(conn,
		"SELECT board, count(*), sum(success), sum(joined) FROM builds GROUP BY board",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				n := stmt.ColumnInt(1)
				sum.Boards[stmt.ColumnText(0)] = n
				sum.Requests += n
				sum.Successes += stmt.ColumnInt(2)
				sum.Joined += stmt.ColumnInt(3)
				return nil
			},
		})
	if err != nil {
		return Summary{}, fmt.Errorf("stats: summarize: %w", err)
	}
	return sum, nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("stats: closing %s: %w", s.path, err)
	}
	s.logger.Debug("stats database closed", "path", s.path)
	return nil
}
