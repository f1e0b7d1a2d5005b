package repository

import (
	"context"

	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/persistence"
)

// ServiceRepository reads the catalogue of work categories.
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	List(ctx context.Context) ([]domain.Service, error)
}

type serviceRepository struct {
	db persistence.DBTX
}

// NewServiceRepository builds repository.
func NewServiceRepository(db persistence.DBTX) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	var svc domain.Service
	err := persistence.Conn(ctx, r.db).
		QueryRow(ctx, `SELECT id, name FROM services WHERE id=$1`, id).
		Scan(&svc.ID, &svc.Name)
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *serviceRepository) List(ctx context.Context) ([]domain.Service, error) {
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, `SELECT id, name FROM services ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Service{}
	for rows.Next() {
		var svc domain.Service
		if err := rows.Scan(&svc.ID, &svc.Name); err != nil {
			return nil, err
		}
		result = append(result, svc)
	}
	return result, rows.Err()
}
