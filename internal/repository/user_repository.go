package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/intervention-service/internal/domain"
	"github.com/spec-kit/intervention-service/internal/persistence"
)

// UserRepository defines persistence access for accounts and their
// service/client assignments.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	ReplaceServices(ctx context.Context, userID string, serviceIDs []string) error
	ReplaceClients(ctx context.Context, userID string, clientIDs []string) error
}

type userRepository struct {
	db persistence.DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db persistence.DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, role, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		user.Username,
		string(user.Role),
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `UPDATE users SET username=$1, password_hash=$2 WHERE id=$3`

	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query,
		user.Username,
		user.PasswordHash,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, username, role, password_hash, created_at FROM users WHERE id=$1`
	return r.fetchWithAssignments(ctx, query, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT id, username, role, password_hash, created_at FROM users WHERE username=$1`
	return r.fetchWithAssignments(ctx, query, username)
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `
        SELECT id, username, role, password_hash, created_at
        FROM users WHERE role=$1 ORDER BY username ASC`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

// ReplaceServices clears the user's service assignments and inserts
// serviceIDs. Callers run it inside a unit of work.
func (r *userRepository) ReplaceServices(ctx context.Context, userID string, serviceIDs []string) error {
	return r.replaceSet(ctx,
		`DELETE FROM intervenant_services WHERE user_id=$1`,
		`INSERT INTO intervenant_services (user_id, service_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, serviceIDs)
}

// ReplaceClients clears the user's client assignments and inserts clientIDs.
func (r *userRepository) ReplaceClients(ctx context.Context, userID string, clientIDs []string) error {
	return r.replaceSet(ctx,
		`DELETE FROM intervenant_clients WHERE user_id=$1`,
		`INSERT INTO intervenant_clients (user_id, client_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, clientIDs)
}

func (r *userRepository) replaceSet(ctx context.Context, clearQuery, insertQuery, userID string, ids []string) error {
	conn := persistence.Conn(ctx, r.db)
	if _, err := conn.Exec(ctx, clearQuery, userID); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := conn.Exec(ctx, insertQuery, userID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepository) fetchWithAssignments(ctx context.Context, query string, arg any) (*domain.User, error) {
	conn := persistence.Conn(ctx, r.db)
	user, err := scanUser(conn.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	if user.ServiceIDs, err = r.listIDs(ctx, `SELECT service_id FROM intervenant_services WHERE user_id=$1 ORDER BY service_id`, user.ID); err != nil {
		return nil, err
	}
	if user.ClientIDs, err = r.listIDs(ctx, `SELECT client_id FROM intervenant_clients WHERE user_id=$1 ORDER BY client_id`, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) listIDs(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&role,
		&user.PasswordHash,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	user.Role = parsed
	return &user, nil
}
