package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cash-register-ledger/internal/domain/audit"
	"github.com/cash-register-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// AuditRepository implements the audit.Repository interface for PostgreSQL
type AuditRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAuditRepository creates a new PostgreSQL audit repository
func NewAuditRepository(logger *slog.Logger, querier persistence.Querier) *AuditRepository {
	return &AuditRepository{
		querier: querier,
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *AuditRepository) WithTx(tx pgx.Tx) *AuditRepository {
	return &AuditRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends an audit entry
func (r *AuditRepository) Create(ctx context.Context, e *audit.Entry) error {
	query := `
		INSERT INTO audit_logs (id, user_id, action, entity, entity_id, old_value, new_value, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.Action,
		e.Entity,
		e.EntityID,
		nullableJSON(e.OldValue),
		nullableJSON(e.NewValue),
		e.IPAddress,
		e.UserAgent,
		e.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create audit entry", "entity", e.Entity, "entity_id", e.EntityID, "error", err)
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// Find returns entries matching the filter newest first
func (r *AuditRepository) Find(ctx context.Context, filter audit.Filter) ([]*audit.Entry, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, "$"+strconv.Itoa(len(args))))
	}

	if filter.UserID != "" {
		add("user_id = %s", filter.UserID)
	}
	if filter.Entity != "" {
		add("entity = %s", filter.Entity)
	}
	if filter.EntityID != "" {
		add("entity_id = %s", filter.EntityID)
	}
	if filter.Action != "" {
		add("action = %s", filter.Action)
	}
	if filter.From != nil {
		add("created_at >= %s", *filter.From)
	}
	if filter.To != nil {
		add("created_at < %s", *filter.To)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, user_id, action, entity, entity_id, old_value, new_value, ip_address, user_agent, created_at FROM audit_logs`)
	if len(conditions) > 0 {
		sb.WriteString(` WHERE `)
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC`)
	if limit := filter.EffectiveLimit(); limit > 0 {
		args = append(args, limit)
		sb.WriteString(` LIMIT $` + strconv.Itoa(len(args)))
	}

	rows, err := r.querier.Query(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error("Failed to query audit entries", "error", err)
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*audit.Entry, 0)
	for rows.Next() {
		var (
			e        audit.Entry
			oldValue []byte
			newValue []byte
		)
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Action,
			&e.Entity,
			&e.EntityID,
			&oldValue,
			&newValue,
			&e.IPAddress,
			&e.UserAgent,
			&e.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan audit entry", "error", err)
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.OldValue = oldValue
		e.NewValue = newValue
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating audit entries", "error", err)
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// nullableJSON maps an empty snapshot to SQL NULL
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
