package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fleetwatch/fleetwatch/internal/models"
)

// UpsertStatus writes the result of the latest check for a host,
// one row per host.
func (s *Store) UpsertStatus(ctx context.Context, st models.HostStatus) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.host_status (host_id, status, last_check_time, last_check_status, response_time_ms)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (host_id) DO UPDATE SET
			status = EXCLUDED.status,
			last_check_time = EXCLUDED.last_check_time,
			last_check_status = EXCLUDED.last_check_status,
			response_time_ms = EXCLUDED.response_time_ms
	`, s.schema)

	_, err := s.db.ExecContext(ctx, query,
		st.HostID, st.Status, st.LastCheckTime, st.LastCheckStatus, st.ResponseTimeMs)
	if err != nil {
		return fmt.Errorf("failed to upsert status for %s: %w", st.HostID, err)
	}
	return nil
}

// GetStatus returns the durable status row for a host, if one exists.
func (s *Store) GetStatus(ctx context.Context, hostID string) (models.HostStatus, error) {
	query := fmt.Sprintf(`
		SELECT host_id, status, last_check_time, last_check_status, response_time_ms
		FROM %s.host_status
		WHERE host_id = $1
	`, s.schema)

	var st models.HostStatus
	err := s.db.QueryRowContext(ctx, query, hostID).Scan(
		&st.HostID, &st.Status, &st.LastCheckTime, &st.LastCheckStatus, &st.ResponseTimeMs)
	if errors.Is(err, sql.ErrNoRows) {
		return models.HostStatus{}, ErrHostNotFound
	}
	if err != nil {
		return models.HostStatus{}, fmt.Errorf("failed to query status for %s: %w", hostID, err)
	}
	return st, nil
}

// ListStatuses returns the status rows for all hosts, keyed by host ID.
func (s *Store) ListStatuses(ctx context.Context) (map[string]models.HostStatus, error) {
	query := fmt.Sprintf(`
		SELECT host_id, status, last_check_time, last_check_status, response_time_ms
		FROM %s.host_status
	`, s.schema)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query host statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]models.HostStatus)
	for rows.Next() {
		var st models.HostStatus
		if err := rows.Scan(&st.HostID, &st.Status, &st.LastCheckTime, &st.LastCheckStatus, &st.ResponseTimeMs); err != nil {
			return nil, fmt.Errorf("failed to scan host status: %w", err)
		}
		statuses[st.HostID] = st
	}

	return statuses, rows.Err()
}

// CountByStatus returns how many hosts are currently online and offline.
func (s *Store) CountByStatus(ctx context.Context) (online, offline int64, err error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE status = 'online'),
			COUNT(*) FILTER (WHERE status = 'offline')
		FROM %s.host_status
	`, s.schema)

	if err := s.db.QueryRowContext(ctx, query).Scan(&online, &offline); err != nil {
		return 0, 0, fmt.Errorf("failed to count host statuses: %w", err)
	}
	return online, offline, nil
}
