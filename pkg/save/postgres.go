package save

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS saves (
	target TEXT NOT NULL,
	slot INTEGER NOT NULL,
	description TEXT NOT NULL,
	saved_at BIGINT NOT NULL,
	size INTEGER NOT NULL,
	payload BYTEA NOT NULL,
	PRIMARY KEY (target, slot)
);
`

type PostgresManager struct {
	conn *pgx.Conn
}

// NewPostgresManager connects to a postgres-backed save store. The caller is
// responsible for calling Close on the manager.
func NewPostgresManager(ctx context.Context, connStr string) (*PostgresManager, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to bootstrap schema: %v", err)
	}

	return &PostgresManager{
		conn: conn,
	}, nil
}

func (m *PostgresManager) Close(ctx context.Context) error {
	return m.conn.Close(ctx)
}

func (m *PostgresManager) Save(ctx context.Context, target string, slot int, description string, payload []byte) error {
	if slot < 0 {
		return fmt.Errorf("invalid slot %d", slot)
	}

	compressed, err := compressPayload(payload)
	if err != nil {
		return err
	}

	q := `
	INSERT INTO saves (target, slot, description, saved_at, size, payload)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (target, slot) DO UPDATE SET description = $3, saved_at = $4, size = $5, payload = $6;
	`
	_, err = m.conn.Exec(ctx, q, target, slot, description, time.Now().UnixMilli(), len(payload), compressed)
	if err != nil {
		return fmt.Errorf("failed to insert save: %v", err)
	}

	return nil
}

func (m *PostgresManager) Load(ctx context.Context, target string, slot int) ([]byte, *Metadata, error) {
	q := `
	SELECT description, saved_at, size, payload FROM saves WHERE target = $1 AND slot = $2;
	`
	var description string
	var savedAt int64
	var size int
	var compressed []byte
	if err := m.conn.QueryRow(ctx, q, target, slot).Scan(&description, &savedAt, &size, &compressed); err != nil {
		if err == pgx.ErrNoRows {
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

func (m *PostgresManager) List(ctx context.Context, target string) ([]*Metadata, error) {
	q := `
	SELECT slot, description, saved_at, size FROM saves WHERE target = $1 ORDER BY slot;
	`
	rows, err := m.conn.Query(ctx, q, target)
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

func (m *PostgresManager) Delete(ctx context.Context, target string, slot int) error {
	q := `
	DELETE FROM saves WHERE target = $1 AND slot = $2;
	`
	result, err := m.conn.Exec(ctx, q, target, slot)
	if err != nil {
		return fmt.Errorf("failed to delete save: %v", err)
	}
	if result.RowsAffected() == 0 {
		return &ErrNotFound{}
	}

	return nil
}
