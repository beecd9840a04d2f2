package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/platform/obs"
)

// Postgres-backed AlertHistory over the sos_alerts table.
type PostgresAlertHistory struct {
	DB *sql.DB
}

func NewPostgresAlertHistory(db *sql.DB) *PostgresAlertHistory {
	return &PostgresAlertHistory{DB: db}
}

func (p *PostgresAlertHistory) RecordAlert(ctx context.Context, l domain.AlertLog) (err error) {
	defer obs.Time(ctx, "history.postgres.RecordAlert")(&err)

	if p.DB == nil {
		return errors.New("postgres alert history: DB is nil")
	}

	query := `
	INSERT INTO sos_alerts (
		id,
		user_id,
		lat,
		lng,
		status,
		sent_count,
		failed_count,
		created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err = p.DB.ExecContext(ctx, query,
		l.ID, l.UserID, l.Location.Lat, l.Location.Lng,
		string(l.Status), l.SentCount, l.FailedCount, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record alert: insert alert id=%s: %w", l.ID, err)
	}

	return nil
}

func (p *PostgresAlertHistory) ListAlerts(
	ctx context.Context,
	userID string,
	limit int,
) (_ []domain.AlertLog, err error) {
	defer obs.Time(ctx, "history.postgres.ListAlerts")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres alert history: DB is nil")
	}

	query := `
	SELECT
		id,
		user_id,
		lat,
		lng,
		status,
		sent_count,
		failed_count,
		created_at
	FROM sos_alerts
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2;
	`
	rows, err := p.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: query sos_alerts table: %w", err)
	}
	defer rows.Close()

	logs := make([]domain.AlertLog, 0, limit)
	for rows.Next() {
		var l domain.AlertLog
		var status string
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Location.Lat, &l.Location.Lng,
			&status, &l.SentCount, &l.FailedCount, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list alerts: scan row: %w", err)
		}
		l.Status = domain.AlertStatus(status)
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list alerts: row iteration: %w", err)
	}

	return logs, nil
}
