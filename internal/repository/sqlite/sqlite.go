// Package sqlite persists the current device snapshot so a restart does not
// begin from an empty inventory. Only the latest record per address is kept,
// there is no history.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"lanwatch/internal/domain"
)

// Repository stores device records in SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		address TEXT PRIMARY KEY,
		mac TEXT NOT NULL,
		name TEXT NOT NULL,
		class TEXT NOT NULL,
		status TEXT NOT NULL,
		last_seen DATETIME NOT NULL,
		response_time_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveDevice upserts one device record
func (r *Repository) SaveDevice(ctx context.Context, dev *domain.Device) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (address, mac, name, class, status, last_seen, response_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			mac = excluded.mac,
			name = excluded.name,
			class = excluded.class,
			status = excluded.status,
			last_seen = excluded.last_seen,
			response_time_ms = excluded.response_time_ms,
			updated_at = CURRENT_TIMESTAMP
	`, dev.Address, dev.MAC, dev.Name, dev.Class, dev.Status, dev.LastSeen.UTC(), dev.ResponseTimeMs)
	if err != nil {
		return fmt.Errorf("save device %s: %w", dev.Address, err)
	}
	return nil
}

// ListDevices loads every stored device record
func (r *Repository) ListDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT address, mac, name, class, status, last_seen, response_time_ms
		FROM devices
	`)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var dev domain.Device
		var lastSeen time.Time
		if err := rows.Scan(&dev.Address, &dev.MAC, &dev.Name, &dev.Class, &dev.Status, &lastSeen, &dev.ResponseTimeMs); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		dev.LastSeen = lastSeen
		devices = append(devices, dev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}

	return devices, nil
}

// DeleteDevice removes one record by address
func (r *Repository) DeleteDevice(ctx context.Context, address string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE address = ?`, address)
	if err != nil {
		return fmt.Errorf("delete device %s: %w", address, err)
	}
	return nil
}

// Close closes the underlying database
func (r *Repository) Close() error {
	return r.db.Close()
}
