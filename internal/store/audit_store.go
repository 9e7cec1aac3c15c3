package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"securevault/internal/models"
)

type AuditStore struct {
	db DB
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

type AuditEntryInput struct {
	ID          string
	ActorUserID *string
	Username    string
	Action      string
	Detail      string
	Status      string
}

type AuditFilter struct {
	ActorUserID string
	Action      string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// Insert appends one entry. audit_logs has no UPDATE or DELETE path anywhere
// in this codebase.
func (s *AuditStore) Insert(ctx context.Context, tx Execer, input AuditEntryInput) error {
	query := `
		INSERT INTO audit_logs (id, actor_user_id, username, action, detail, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.ActorUserID, input.Username, input.Action, input.Detail, input.Status)
	return err
}

// List scans matching entries ordered by timestamp ascending. Pagination via
// Limit/Offset keeps the log from ever being materialized whole.
func (s *AuditStore) List(ctx context.Context, q Selecter, filter AuditFilter) ([]models.AuditEntry, error) {
	var conditions []string
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.ActorUserID != "" {
		conditions = append(conditions, "actor_user_id = "+arg(filter.ActorUserID))
	}
	if filter.Action != "" {
		conditions = append(conditions, "action = "+arg(filter.Action))
	}
	if filter.From != nil {
		conditions = append(conditions, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "created_at <= "+arg(*filter.To))
	}
	query := `SELECT id, actor_user_id, username, action, detail, status, created_at FROM audit_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += " ORDER BY created_at ASC, id ASC LIMIT " + arg(limit) + " OFFSET " + arg(filter.Offset)

	var rows []models.AuditEntry
	err := q.SelectContext(ctx, &rows, query, args...)
	return rows, err
}
