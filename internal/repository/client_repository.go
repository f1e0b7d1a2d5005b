package repository

import (
	"context"

	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/persistence"
)

// ClientRepository persists client profiles.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Client, error)
	List(ctx context.Context) ([]domain.Client, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Client, error)
}

type clientRepository struct {
	db persistence.DBTX
}

// NewClientRepository builds repository.
func NewClientRepository(db persistence.DBTX) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	const query = `
        INSERT INTO clients (name, address, user_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		client.Name,
		client.Address,
		client.UserID,
	).Scan(&client.ID, &client.CreatedAt)
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	const query = `SELECT id, name, address, user_id, created_at FROM clients WHERE id=$1`
	return scanClient(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

// GetByUserID returns the first profile linked to the login account.
func (r *clientRepository) GetByUserID(ctx context.Context, userID string) (*domain.Client, error) {
	const query = `
        SELECT id, name, address, user_id, created_at
        FROM clients WHERE user_id=$1 ORDER BY created_at ASC LIMIT 1`
	return scanClient(persistence.Conn(ctx, r.db).QueryRow(ctx, query, userID))
}

func (r *clientRepository) List(ctx context.Context) ([]domain.Client, error) {
	const query = `SELECT id, name, address, user_id, created_at FROM clients ORDER BY name ASC`
	return r.list(ctx, query)
}

func (r *clientRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Client, error) {
	if len(ids) == 0 {
		return []domain.Client{}, nil
	}
	const query = `
        SELECT id, name, address, user_id, created_at
        FROM clients WHERE id = ANY($1) ORDER BY name ASC`
	return r.list(ctx, query, ids)
}

func (r *clientRepository) list(ctx context.Context, query string, args ...any) ([]domain.Client, error) {
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *client)
	}
	return result, rows.Err()
}

func scanClient(row rowScanner) (*domain.Client, error) {
	var client domain.Client
	if err := row.Scan(
		&client.ID,
		&client.Name,
		&client.Address,
		&client.UserID,
		&client.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &client, nil
}
