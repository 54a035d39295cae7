package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fleetwatch/fleetwatch/internal/models"
)

// AppendLog inserts one probe result into the append-only log.
func (s *Store) AppendLog(ctx context.Context, r models.ProbeResult) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.probe_logs (host_id, success, response_time_ms, error_message, captured_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.schema)

	_, err := s.db.ExecContext(ctx, query,
		r.HostID, r.Success, r.ResponseTimeMs, r.ErrorMessage, r.CapturedAt)
	if err != nil {
		return fmt.Errorf("failed to append probe log for %s: %w", r.HostID, err)
	}
	return nil
}

// DeleteLogsBefore removes probe log rows captured before the cutoff.
// Deletes run in batches to avoid long-running transactions.
func (s *Store) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const batchSize = 10000
	deletedTotal := int64(0)

	for {
		query := fmt.Sprintf(`
			DELETE FROM %s.probe_logs
			WHERE id IN (
				SELECT id FROM %s.probe_logs
				WHERE captured_at < $1
				ORDER BY captured_at ASC
				LIMIT %d
			)
		`, s.schema, s.schema, batchSize)

		result, err := s.db.ExecContext(ctx, query, cutoff)
		if err != nil {
			return deletedTotal, fmt.Errorf("failed to delete old probe logs: %w", err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			break
		}
		deletedTotal += rowsAffected

		select {
		case <-ctx.Done():
			return deletedTotal, fmt.Errorf("cleanup cancelled: %w", ctx.Err())
		default:
		}
	}

	return deletedTotal, nil
}

// CountLogsBefore reports how many probe log rows fall before the
// cutoff without deleting anything.
func (s *Store) CountLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s.probe_logs WHERE captured_at < $1`, s.schema)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count old probe logs: %w", err)
	}
	return count, nil
}

// LogQuery filters and pages the probe log listing.
type LogQuery struct {
	HostID  string
	Status  string // "success" or "failed", empty for all
	Page    int
	PerPage int
}

// ListLogs returns a page of probe log rows, newest first, with the total
// row count for the filter.
func (s *Store) ListLogs(ctx context.Context, q LogQuery) ([]models.ProbeResult, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > 500 {
		q.PerPage = 50
	}

	where := []string{}
	args := []any{}

	if q.HostID != "" {
		args = append(args, q.HostID)
		where = append(where, fmt.Sprintf("host_id = $%d", len(args)))
	}
	switch q.Status {
	case models.CheckSuccess:
		where = append(where, "success = TRUE")
	case models.CheckFailed:
		where = append(where, "success = FALSE")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s.probe_logs %s`, s.schema, whereClause)
	var total int64
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count probe logs: %w", err)
	}

	args = append(args, q.PerPage, (q.Page-1)*q.PerPage)
	listQuery := fmt.Sprintf(`
		SELECT id, host_id, success, response_time_ms, COALESCE(error_message, ''), captured_at
		FROM %s.probe_logs
		%s
		ORDER BY captured_at DESC
		LIMIT $%d OFFSET $%d
	`, s.schema, whereClause, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query probe logs: %w", err)
	}
	defer rows.Close()

	logs := []models.ProbeResult{}
	for rows.Next() {
		var r models.ProbeResult
		if err := rows.Scan(&r.ID, &r.HostID, &r.Success, &r.ResponseTimeMs, &r.ErrorMessage, &r.CapturedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan probe log: %w", err)
		}
		logs = append(logs, r)
	}

	return logs, total, rows.Err()
}
