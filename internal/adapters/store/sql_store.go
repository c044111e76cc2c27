package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

// SQLStore keeps the ingestion state in two tables and replaces both inside a
// single transaction, so readers never see a watermark without its outcomes.
type SQLStore struct {
	db        *sql.DB
	dialect   string
	table     string
	chunkRows int
}

// insertChunkRows keeps every INSERT well below the bind-parameter limits
// (32766 on sqlite3, 65535 on postgres and mysql).
const insertChunkRows = 1000

// OpenSQLStore opens driver ("postgres", "sqlite3" or "mysql") and ensures the schema.
func OpenSQLStore(ctx context.Context, driver, dsn, table string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	s, err := NewSQLStore(db, driver, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQLStore(db *sql.DB, dialect, table string) (*SQLStore, error) {
	switch dialect {
	case "postgres", "sqlite3", "mysql":
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	if table == "" {
		table = "ecg_outcomes"
	}
	return &SQLStore{db: db, dialect: dialect, table: table, chunkRows: insertChunkRows}, nil
}

func (s *SQLStore) watermarkTable() string { return s.table + "_watermark" }

func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS " + s.table + " (seq INTEGER NOT NULL, recorded_at VARCHAR(64) NOT NULL PRIMARY KEY, prediction VARCHAR(16) NOT NULL)",
		"CREATE TABLE IF NOT EXISTS " + s.watermarkTable() + " (id INTEGER NOT NULL PRIMARY KEY, last_recorded_at VARCHAR(64) NOT NULL)",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure schema: %w", domain.ErrStorageUnavailable, err)
		}
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (domain.IngestionState, error) {
	var state domain.IngestionState

	var iso string
	err := s.db.QueryRowContext(ctx, "SELECT last_recorded_at FROM "+s.watermarkTable()+" WHERE id = 1").Scan(&iso)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return state, fmt.Errorf("%w: load watermark: %w", domain.ErrStorageUnavailable, err)
	default:
		ts, err := ParseTimestamp(iso)
		if err != nil {
			return state, fmt.Errorf("%w: parse watermark: %w", domain.ErrStorageCorrupt, err)
		}
		state.Watermark = &ts
	}

	rows, err := s.db.QueryContext(ctx, "SELECT recorded_at, prediction FROM "+s.table+" ORDER BY seq")
	if err != nil {
		return state, fmt.Errorf("%w: load outcomes: %w", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var persisted []persistedOutcome
	for rows.Next() {
		var r persistedOutcome
		if err := rows.Scan(&r.Date, &r.Prediction); err != nil {
			return state, fmt.Errorf("%w: scan outcome: %w", domain.ErrStorageCorrupt, err)
		}
		persisted = append(persisted, r)
	}
	if err := rows.Err(); err != nil {
		return state, fmt.Errorf("%w: load outcomes: %w", domain.ErrStorageUnavailable, err)
	}

	state.Outcomes, err = decodeOutcomes(persisted)
	return state, err
}

func (s *SQLStore) Save(ctx context.Context, state domain.IngestionState) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrStorageUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+s.table); err != nil {
		return fmt.Errorf("%w: clear outcomes: %w", domain.ErrStorageUnavailable, err)
	}
	rows := encodeOutcomes(state.Outcomes)
	for start := 0; start < len(rows); start += s.chunkRows {
		end := min(start+s.chunkRows, len(rows))
		query, args := s.insertOutcomes(rows[start:end], start)
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: insert outcomes %d-%d: %w", domain.ErrStorageUnavailable, start, end-1, err)
		}
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM "+s.watermarkTable()); err != nil {
		return fmt.Errorf("%w: clear watermark: %w", domain.ErrStorageUnavailable, err)
	}
	if state.Watermark != nil {
		query := "INSERT INTO " + s.watermarkTable() + " (id, last_recorded_at) VALUES (" + s.placeholder(1) + "," + s.placeholder(2) + ")"
		if _, err = tx.ExecContext(ctx, query, 1, FormatTimestamp(*state.Watermark)); err != nil {
			return fmt.Errorf("%w: write watermark: %w", domain.ErrStorageUnavailable, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// insertOutcomes builds one multi-row INSERT; seq numbers start at firstSeq.
func (s *SQLStore) insertOutcomes(rows []persistedOutcome, firstSeq int) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(s.table)
	b.WriteString(" (seq, recorded_at, prediction) VALUES ")

	args := make([]any, 0, len(rows)*3)
	for i, r := range rows {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("(%s,%s,%s)",
			s.placeholder(len(args)+1), s.placeholder(len(args)+2), s.placeholder(len(args)+3)))
		args = append(args, firstSeq+i, r.Date, r.Prediction)
	}
	return b.String(), args
}

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ ports.ResultStore = (*SQLStore)(nil)
