package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSource reads a dataset from a SQLite database
type SQLiteSource struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewSQLiteSource creates (or opens) a database at dbPath and ensures the schema exists
func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	src := &SQLiteSource{
		db:     db,
		dbPath: dbPath,
	}

	if err := src.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := src.setMetadata("version", "1"); err != nil {
		db.Close()
		return nil, err
	}

	return src, nil
}

// OpenSQLiteSource opens an existing database
func OpenSQLiteSource(dbPath string) (*SQLiteSource, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database does not exist: %s", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	src := &SQLiteSource{
		db:     db,
		dbPath: dbPath,
	}

	if _, err := src.getMetadata("version"); err != nil {
		db.Close()
		return nil, fmt.Errorf("not a guestdist database: %w", err)
	}

	return src, nil
}

// initSchema creates the database schema
func (s *SQLiteSource) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS thematics (
		id TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS other_guests (
		id TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS scores (
		guest_id TEXT NOT NULL,
		thematic_id TEXT NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (guest_id, thematic_id)
	);

	CREATE INDEX IF NOT EXISTS idx_scores_guest ON scores(guest_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Name returns the database path
func (s *SQLiteSource) Name() string {
	return "sqlite:" + s.dbPath
}

// Read loads the whole database into a dataset
func (s *SQLiteSource) Read(ctx context.Context) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds := &Dataset{Scores: make(map[string]map[string]float64)}

	var err error
	if ds.Thematics, err = s.readIDs(ctx, `SELECT id FROM thematics ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to read thematics: %w", err)
	}
	if ds.OtherGuests, err = s.readIDs(ctx, `SELECT id FROM other_guests ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to read other guests: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT guest_id, thematic_id, score FROM scores`)
	if err != nil {
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			guestID, thematicID string
			score               float64
		)
		if err := rows.Scan(&guestID, &thematicID, &score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		thematics, ok := ds.Scores[guestID]
		if !ok {
			thematics = make(map[string]float64)
			ds.Scores[guestID] = thematics
		}
		thematics[thematicID] = score
	}

	return ds, rows.Err()
}

func (s *SQLiteSource) readIDs(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Load reads the database and pushes it into sink
func (s *SQLiteSource) Load(ctx context.Context, sink Sink) error {
	ds, err := s.Read(ctx)
	if err != nil {
		return err
	}
	ds.Apply(sink)
	return nil
}

// Write stores a dataset, replacing rows with the same keys
func (s *SQLiteSource) Write(ctx context.Context, ds *Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ds.Thematics {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO thematics (id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("failed to write thematic %s: %w", id, err)
		}
	}

	for _, id := range ds.OtherGuests {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO other_guests (id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("failed to write other guest %s: %w", id, err)
		}
	}

	for guestID, thematics := range ds.Scores {
		for thematicID, score := range thematics {
			_, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO scores (guest_id, thematic_id, score)
				VALUES (?, ?, ?)
			`, guestID, thematicID, score)
			if err != nil {
				return fmt.Errorf("failed to write score %s/%s: %w", guestID, thematicID, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO metadata (key, value) VALUES ('imported_at', ?)
	`, time.Now().Format(time.RFC3339)); err != nil {
		return err
	}

	return tx.Commit()
}

// Close closes the database connection
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// getMetadata retrieves a metadata value
func (s *SQLiteSource) getMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("metadata key not found: %s", key)
	}
	return value, err
}

// setMetadata stores a metadata value
func (s *SQLiteSource) setMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO metadata (key, value)
		VALUES (?, ?)
	`, key, value)
	return err
}
