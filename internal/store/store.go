// Package store persists durable host-monitoring state in PostgreSQL:
// the host roster, per-host status rows and the append-only probe log.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fleetwatch/fleetwatch/internal/database"
	"github.com/fleetwatch/fleetwatch/internal/models"
	"github.com/lib/pq"
)

// ErrHostNotFound is returned when a host ID is not in the roster.
var ErrHostNotFound = errors.New("host not found")

type Store struct {
	db     *database.DB
	schema string
}

func New(db *database.DB, schema string) *Store {
	return &Store{
		db:     db,
		schema: schema,
	}
}

// ListHosts returns the full roster, ordered by name.
func (s *Store) ListHosts(ctx context.Context) ([]models.Host, error) {
	query := fmt.Sprintf(`
		SELECT id, name, addr, port, username, auth_type,
		       COALESCE(password, ''), COALESCE(private_key, ''),
		       tags, created_at, updated_at, last_seen_at
		FROM %s.hosts
		ORDER BY name ASC
	`, s.schema)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query hosts: %w", err)
	}
	defer rows.Close()

	hosts := []models.Host{}
	for rows.Next() {
		h, err := scanHost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, h)
	}

	return hosts, rows.Err()
}

// GetHost returns one host by ID.
func (s *Store) GetHost(ctx context.Context, hostID string) (models.Host, error) {
	query := fmt.Sprintf(`
		SELECT id, name, addr, port, username, auth_type,
		       COALESCE(password, ''), COALESCE(private_key, ''),
		       tags, created_at, updated_at, last_seen_at
		FROM %s.hosts
		WHERE id = $1
	`, s.schema)

	h, err := scanHost(s.db.QueryRowContext(ctx, query, hostID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Host{}, ErrHostNotFound
	}
	if err != nil {
		return models.Host{}, fmt.Errorf("failed to query host %s: %w", hostID, err)
	}
	return h, nil
}

// TouchHostLastSeen records that a push submission arrived for the host.
func (s *Store) TouchHostLastSeen(ctx context.Context, hostID string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s.hosts
		SET last_seen_at = $2, updated_at = NOW()
		WHERE id = $1
	`, s.schema)

	_, err := s.db.ExecContext(ctx, query, hostID, at)
	if err != nil {
		return fmt.Errorf("failed to update last_seen_at: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHost(row rowScanner) (models.Host, error) {
	var h models.Host
	var tags pq.StringArray
	var lastSeen sql.NullTime

	err := row.Scan(&h.ID, &h.Name, &h.Addr, &h.Port, &h.Username, &h.AuthType,
		&h.Password, &h.PrivateKey, &tags, &h.CreatedAt, &h.UpdatedAt, &lastSeen)
	if err != nil {
		return models.Host{}, err
	}

	h.Tags = tags
	if lastSeen.Valid {
		h.LastSeenAt = &lastSeen.Time
	}
	return h, nil
}
