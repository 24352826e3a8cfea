package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the event journal to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across statements.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS position_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			transition  TEXT,
			position_id TEXT,
			side        TEXT,
			symbol      TEXT,
			entry_price REAL,
			notional    REAL,
			pnl         REAL,
			opened_at   INTEGER,
			mode        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_position_ts ON position_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS command_log (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			request_id  TEXT,
			command     TEXT,
			args        TEXT,
			ok          INTEGER,
			message     TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_command_ts ON command_log(timestamp)`,

		`CREATE TABLE IF NOT EXISTS mode_transitions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			transition_id TEXT,
			from_mode     TEXT,
			to_mode       TEXT,
			ok            INTEGER,
			balance       REAL,
			error         TEXT,
			duration_ms   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mode_ts ON mode_transitions(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPosition(evt *PositionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var openedAt int64
	if !evt.OpenedAt.IsZero() {
		openedAt = evt.OpenedAt.UnixMilli()
	}
	_, err := r.db.Exec(`INSERT INTO position_events
		(timestamp, transition, position_id, side, symbol, entry_price, notional, pnl, opened_at, mode)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Transition, evt.PositionID, evt.Side, evt.Symbol,
		evt.EntryPrice, evt.Notional, evt.PnL, openedAt, evt.Mode,
	)
	return err
}

func (r *SQLiteRecorder) RecordCommand(evt *CommandEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO command_log
		(timestamp, request_id, command, args, ok, message, duration_ms)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.RequestID, evt.Command, evt.Args,
		boolInt(evt.OK), evt.Message, evt.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordModeTransition(evt *ModeTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO mode_transitions
		(timestamp, transition_id, from_mode, to_mode, ok, balance, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.TransitionID, evt.From, evt.To,
		boolInt(evt.OK), evt.Balance, evt.Error, evt.Duration.Milliseconds(),
	)
	return err
}

// CountRows returns the number of rows in one of the journal tables.
func (r *SQLiteRecorder) CountRows(table string) (int, error) {
	switch table {
	case "position_events", "command_log", "mode_transitions":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
