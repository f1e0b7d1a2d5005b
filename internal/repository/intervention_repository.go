package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/persistence"
)

const interventionColumns = `id, start_time, end_time, description, status, cancellation_reason,
               intervenant_id, client_id, service_id, created_at`

// InterventionFilter narrows intervention listings. Results are always
// ordered by start time, newest first.
type InterventionFilter struct {
	IntervenantID   *string
	ClientID        *string
	Statuses        []domain.InterventionStatus
	StartsAtOrAfter *time.Time
	StartsBefore    *time.Time
	Limit           int
}

// InterventionRepository encapsulates intervention persistence.
type InterventionRepository interface {
	Create(ctx context.Context, intervention *domain.Intervention) error
	Update(ctx context.Context, intervention *domain.Intervention) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Intervention, error)
	LatestForIntervenant(ctx context.Context, intervenantID string, asOf time.Time) (*domain.Intervention, error)
	List(ctx context.Context, filter InterventionFilter) ([]domain.Intervention, error)
}

type interventionRepository struct {
	db persistence.DBTX
}

// NewInterventionRepository instantiates repository.
func NewInterventionRepository(db persistence.DBTX) InterventionRepository {
	return &interventionRepository{db: db}
}

func (r *interventionRepository) Create(ctx context.Context, intervention *domain.Intervention) error {
	const query = `
        INSERT INTO interventions (start_time, end_time, description, status, cancellation_reason,
            intervenant_id, client_id, service_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		intervention.StartTime,
		intervention.EndTime,
		intervention.Description,
		string(intervention.Status),
		intervention.CancellationReason,
		intervention.IntervenantID,
		intervention.ClientID,
		intervention.ServiceID,
	).Scan(&intervention.ID, &intervention.CreatedAt)
}

// Update persists lifecycle fields. The intervenant, client and service
// references are fixed at creation and never written here.
func (r *interventionRepository) Update(ctx context.Context, intervention *domain.Intervention) error {
	const query = `
        UPDATE interventions SET start_time=$1, end_time=$2, description=$3, status=$4, cancellation_reason=$5
        WHERE id=$6`
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query,
		intervention.StartTime,
		intervention.EndTime,
		intervention.Description,
		string(intervention.Status),
		intervention.CancellationReason,
		intervention.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *interventionRepository) Delete(ctx context.Context, id string) error {
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, `DELETE FROM interventions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *interventionRepository) GetByID(ctx context.Context, id string) (*domain.Intervention, error) {
	query := `SELECT ` + interventionColumns + ` FROM interventions WHERE id=$1`
	return scanIntervention(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

// LatestForIntervenant returns the most recent intervention that started at
// or before asOf. Rows created later win ties on start time.
func (r *interventionRepository) LatestForIntervenant(ctx context.Context, intervenantID string, asOf time.Time) (*domain.Intervention, error) {
	query := `SELECT ` + interventionColumns + `
        FROM interventions WHERE intervenant_id=$1 AND start_time <= $2
        ORDER BY start_time DESC, created_at DESC LIMIT 1`
	return scanIntervention(persistence.Conn(ctx, r.db).QueryRow(ctx, query, intervenantID, asOf))
}

func (r *interventionRepository) List(ctx context.Context, filter InterventionFilter) ([]domain.Intervention, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.IntervenantID != nil {
		args = append(args, *filter.IntervenantID)
		clauses = append(clauses, fmt.Sprintf("intervenant_id=$%d", len(args)))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.StartsAtOrAfter != nil {
		args = append(args, *filter.StartsAtOrAfter)
		clauses = append(clauses, fmt.Sprintf("start_time >= $%d", len(args)))
	}
	if filter.StartsBefore != nil {
		args = append(args, *filter.StartsBefore)
		clauses = append(clauses, fmt.Sprintf("start_time < $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM interventions WHERE %s ORDER BY start_time DESC, created_at DESC`,
		interventionColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Intervention{}
	for rows.Next() {
		intervention, err := scanIntervention(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *intervention)
	}
	return result, rows.Err()
}

func scanIntervention(row rowScanner) (*domain.Intervention, error) {
	var (
		intervention domain.Intervention
		status       string
	)
	if err := row.Scan(
		&intervention.ID,
		&intervention.StartTime,
		&intervention.EndTime,
		&intervention.Description,
		&status,
		&intervention.CancellationReason,
		&intervention.IntervenantID,
		&intervention.ClientID,
		&intervention.ServiceID,
		&intervention.CreatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseInterventionStatus(status)
	if err != nil {
		return nil, err
	}
	intervention.Status = parsed
	return &intervention, nil
}
