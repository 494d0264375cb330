package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/finrisk/internal/contracts"
)

// AlertRepository implements contracts.AlertRepository
// ⭐ SSOT: risk_alerts rows are inserted and flagged, never deleted
type AlertRepository struct {
	db *pgxpool.Pool
}

var _ contracts.AlertRepository = (*AlertRepository)(nil)

// NewAlertRepository creates a new AlertRepository
func NewAlertRepository(db *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{db: db}
}

// ExistsSince reports whether an alert of type t was created after since
func (r *AlertRepository) ExistsSince(ctx context.Context, companyID int64, t contracts.AlertType, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM risk_alerts
			WHERE company_id = $1 AND alert_type = $2 AND created_at > $3
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, companyID, t, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("query recent alert: %w", err)
	}
	return exists, nil
}

// Create inserts an alert and fills ID and CreatedAt
func (r *AlertRepository) Create(ctx context.Context, a *contracts.RiskAlert) error {
	query := `
		INSERT INTO risk_alerts (
			company_id, alert_type, severity, title, message,
			threshold_value, current_value
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		a.CompanyID, a.AlertType, a.Severity, a.Title, a.Message,
		a.ThresholdValue, a.CurrentValue,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// MarkRead sets is_read; false when the alert does not exist
func (r *AlertRepository) MarkRead(ctx context.Context, alertID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE risk_alerts SET is_read = TRUE WHERE id = $1`, alertID)
	if err != nil {
		return false, fmt.Errorf("mark alert read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Resolve closes an alert; false when the alert does not exist
func (r *AlertRepository) Resolve(ctx context.Context, alertID int64, userID *int64, at time.Time) (bool, error) {
	query := `
		UPDATE risk_alerts
		SET is_resolved = TRUE, resolved_at = $2, resolved_by = $3
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, alertID, at, userID)
	if err != nil {
		return false, fmt.Errorf("resolve alert: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns alerts joined with the company name, newest first
func (r *AlertRepository) List(ctx context.Context, f contracts.AlertFilter) ([]*contracts.AlertWithCompany, error) {
	var w where
	if f.UnreadOnly {
		w.add("a.is_read = ?", false)
	}
	if f.Unresolved {
		w.add("a.is_resolved = ?", false)
	}
	if f.Severity != "" {
		w.add("a.severity = ?", f.Severity)
	}
	if f.AlertType != "" {
		w.add("a.alert_type = ?", f.AlertType)
	}
	if f.CompanyID != 0 {
		w.add("a.company_id = ?", f.CompanyID)
	}

	query := `
		SELECT
			a.id, a.company_id, a.alert_type, a.severity, a.title, a.message,
			a.threshold_value, a.current_value, a.is_read, a.is_resolved,
			a.resolved_at, a.resolved_by, a.created_at,
			COALESCE(c.name, '')
		FROM risk_alerts a
		LEFT JOIN companies c ON c.id = a.company_id` +
		w.String() +
		` ORDER BY a.created_at DESC, a.id DESC` +
		w.page(f.Offset, f.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*contracts.AlertWithCompany
	for rows.Next() {
		a := &contracts.AlertWithCompany{}
		if err := rows.Scan(
			&a.ID, &a.CompanyID, &a.AlertType, &a.Severity, &a.Title, &a.Message,
			&a.ThresholdValue, &a.CurrentValue, &a.IsRead, &a.IsResolved,
			&a.ResolvedAt, &a.ResolvedBy, &a.CreatedAt,
			&a.CompanyName,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Stats counts total, unread, critical and unresolved alerts
func (r *AlertRepository) Stats(ctx context.Context) (*contracts.AlertStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT is_read),
			COUNT(*) FILTER (WHERE severity = 'critical'),
			COUNT(*) FILTER (WHERE NOT is_resolved)
		FROM risk_alerts
	`

	s := &contracts.AlertStats{}
	err := r.db.QueryRow(ctx, query).Scan(&s.TotalAlerts, &s.UnreadAlerts, &s.CriticalAlerts, &s.UnresolvedAlerts)
	if err != nil {
		return nil, fmt.Errorf("query alert stats: %w", err)
	}
	return s, nil
}
