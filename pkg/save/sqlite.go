package save

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS saves (
	target TEXT NOT NULL,
	slot INTEGER NOT NULL,
	description TEXT NOT NULL,
	saved_at INTEGER NOT NULL,
	size INTEGER NOT NULL,
	payload BLOB NOT NULL,
	PRIMARY KEY (target, slot)
);
`

type SQLiteManager struct {
	db *sql.DB
}

// NewSQLiteManager opens (creating if necessary) a sqlite-backed save store
// at the given path.
func NewSQLiteManager(ctx context.Context, path string) (*SQLiteManager, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %v", err)
	}

	return &SQLiteManager{
		db: db,
	}, nil
}

func (m *SQLiteManager) Close(ctx context.Context) error {
	return m.db.Close()
}

func (m *SQLiteManager) Save(ctx context.Context, target string, slot int, description string, payload []byte) error {
	if slot < 0 {
		return fmt.Errorf("invalid slot %d", slot)
	}

	compressed, err := compressPayload(payload)
	if err != nil {
		return err
	}

	q := `
	INSERT OR REPLACE INTO saves (target, slot, description, saved_at, size, payload)
	VALUES (?, ?, ?, ?, ?, ?);
	`
	_, err = m.db.ExecContext(ctx, q, target, slot, description, time.Now().UnixMilli(), len(payload), compressed)
	if err != nil {
		return fmt.Errorf("failed to insert save: %v", err)
	}

	return nil
}

func (m *SQLiteManager) Load(ctx context.Context, target string, slot int) ([]byte, *Metadata, error) {
	q := `
	SELECT description, saved_at, size, payload FROM saves WHERE target = ? AND slot = ?;
	`
	var description string
	var savedAt int64
	var size int
	var compressed []byte
	if err := m.db.QueryRowContext(ctx, q, target, slot).Scan(&description, &savedAt, &size, &compressed); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, &ErrNotFound{}
		}
		return nil, nil, fmt.Errorf("failed to scan save: %v", err)
	}

	payload, err := decompressPayload(compressed)
	if err != nil {
		return nil, nil, err
	}

	return payload, &Metadata{
		Target:      target,
		Slot:        slot,
		Description: description,
		SavedAt:     time.UnixMilli(savedAt),
		Size:        size,
	}, nil
}

func (m *SQLiteManager) List(ctx context.Context, target string) ([]*Metadata, error) {
	q := `
	SELECT slot, description, saved_at, size FROM saves WHERE target = ? ORDER BY slot;
	`
	rows, err := m.db.QueryContext(ctx, q, target)
	if err != nil {
		return nil, fmt.Errorf("failed to query saves: %v", err)
	}
	defer rows.Close()

	var saves []*Metadata
	for rows.Next() {
		meta := &Metadata{Target: target}
		var savedAt int64
		if err := rows.Scan(&meta.Slot, &meta.Description, &savedAt, &meta.Size); err != nil {
			return nil, fmt.Errorf("failed to scan save: %v", err)
		}
		meta.SavedAt = time.UnixMilli(savedAt)
		saves = append(saves, meta)
	}

	return saves, rows.Err()
}

func (m *SQLiteManager) Delete(ctx context.Context, target string, slot int) error {
	q := `
	DELETE FROM saves WHERE target = ? AND slot = ?;
	`
	result, err := m.db.ExecContext(ctx, q, target, slot)
	if err != nil {
		return fmt.Errorf("failed to delete save: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %v", err)
	}
	if affected == 0 {
		return &ErrNotFound{}
	}

	return nil
}
