package counter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type dialect struct {
	name   string
	schema string
	getAll string
	upsert string
}

var sqliteDialect = dialect{
	name: "sqlite3",
	schema: `
		CREATE TABLE IF NOT EXISTS item_clicks (
			item_uid TEXT PRIMARY KEY,
			click_count INTEGER DEFAULT 0
		)`,
	getAll: "SELECT item_uid, click_count FROM item_clicks WHERE click_count > 0",
	upsert: `
		INSERT INTO item_clicks (item_uid, click_count)
		VALUES (?, 1)
		ON CONFLICT(item_uid) DO UPDATE SET click_count = click_count + 1`,
}

var postgresDialect = dialect{
	name: "postgres",
	schema: `
		CREATE TABLE IF NOT EXISTS item_clicks (
			item_uid TEXT PRIMARY KEY,
			click_count BIGINT DEFAULT 0
		)`,
	getAll: "SELECT item_uid, click_count FROM item_clicks WHERE click_count > 0",
	upsert: `
		INSERT INTO item_clicks (item_uid, click_count)
		VALUES ($1, 1)
		ON CONFLICT (item_uid) DO UPDATE SET click_count = item_clicks.click_count + 1`,
}

var _ Store = (*SQLStore)(nil)

// SQLStore keeps counts in the item_clicks table of a SQLite or PostgreSQL database.
type SQLStore struct {
	db      *sql.DB
	dialect dialect

	getAllStmt *sql.Stmt
	upsertStmt *sql.Stmt
}

// OpenSQLite opens the SQLite file at path. Writes go through a single
// connection so concurrent writers in this process queue up instead of
// failing with SQLITE_BUSY.
func OpenSQLite(path string) (*SQLStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open(sqliteDialect.name, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQLStore(db, sqliteDialect), nil
}

func OpenPostgres(url string) (*SQLStore, error) {
	connector, err := pq.NewConnector(url)
	if err != nil {
		return nil, fmt.Errorf("pq.NewConnector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return newSQLStore(db, postgresDialect), nil
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

func (s *SQLStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return storageError("initialize", describe(err))
	}

	var err error
	if s.getAllStmt == nil {
		if s.getAllStmt, err = s.db.PrepareContext(ctx, s.dialect.getAll); err != nil {
			return storageError("initialize", fmt.Errorf("prepare getAll: %w", err))
		}
	}
	if s.upsertStmt == nil {
		if s.upsertStmt, err = s.db.PrepareContext(ctx, s.dialect.upsert); err != nil {
			return storageError("initialize", fmt.Errorf("prepare upsert: %w", err))
		}
	}
	return nil
}

func (s *SQLStore) GetAll(ctx context.Context) (map[string]int64, error) {
	if s.getAllStmt == nil {
		return nil, storageError("getAll", errNotInitialized)
	}

	rows, err := s.getAllStmt.QueryContext(ctx)
	if err != nil {
		return nil, storageError("getAll", describe(err))
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var uid string
		var n int64
		if err := rows.Scan(&uid, &n); err != nil {
			return nil, storageError("getAll", err)
		}
		counts[uid] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("getAll", describe(err))
	}
	return counts, nil
}

func (s *SQLStore) Increment(ctx context.Context, uid string) error {
	if s.upsertStmt == nil {
		return storageError("increment", errNotInitialized)
	}
	_, err := s.upsertStmt.ExecContext(ctx, uid)
	return storageError("increment", describe(err))
}

func (s *SQLStore) Close() error {
	for _, st := range []*sql.Stmt{s.getAllStmt, s.upsertStmt} {
		if st != nil {
			st.Close()
		}
	}
	return s.db.Close()
}

// describe adds the engine specific code to driver errors.
func describe(err error) error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case sqlite3.Error:
		return fmt.Errorf("sqlite3 %s: %w", e.Code, err)
	case *pq.Error:
		return fmt.Errorf("pq %s: %w", e.Code, err)
	}
	return err
}
