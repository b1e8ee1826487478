package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/mastry/crm-backend/internal/entity"
)

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) Insert(ctx context.Context, u *entity.User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, role, is_active, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Email, u.FullName, u.Role, u.IsActive, u.CreatedAt, u.LastLogin)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return entity.ErrUserAlreadyExists
	}
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `
		SELECT id, email, full_name, role, is_active, created_at, last_login
		FROM users WHERE id = $1
	`, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `
		SELECT id, email, full_name, role, is_active, created_at, last_login
		FROM users WHERE email = $1
	`, email))
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET email = $2, full_name = $3, role = $4, is_active = $5, last_login = $6
		WHERE id = $1
	`, u.ID, u.Email, u.FullName, u.Role, u.IsActive, u.LastLogin)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, email, full_name, role, is_active, created_at, last_login
		FROM users ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		u         entity.User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.LastLogin = nullTimePtr(lastLogin)
	return &u, nil
}

// RotationRepository persists the singleton round-robin state as the only
// row of assignment_rotation.
type RotationRepository struct {
	DB *sql.DB
}

func (r *RotationRepository) Get(ctx context.Context) (*entity.AssignmentRotation, error) {
	var (
		rot      entity.AssignmentRotation
		eligible []byte
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT last_assigned_user_id, eligible_user_ids, updated_at
		FROM assignment_rotation WHERE id = 1
	`).Scan(&rot.LastAssignedUserID, &eligible, &rot.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &entity.AssignmentRotation{EligibleUserIDs: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := fromJSON(eligible, &rot.EligibleUserIDs); err != nil {
		return nil, err
	}
	if rot.EligibleUserIDs == nil {
		rot.EligibleUserIDs = []string{}
	}
	return &rot, nil
}

func (r *RotationRepository) Save(ctx context.Context, rot *entity.AssignmentRotation) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO assignment_rotation (id, last_assigned_user_id, eligible_user_ids, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			last_assigned_user_id = EXCLUDED.last_assigned_user_id,
			eligible_user_ids = EXCLUDED.eligible_user_ids,
			updated_at = EXCLUDED.updated_at
	`, rot.LastAssignedUserID, toJSON(rot.EligibleUserIDs), rot.UpdatedAt)
	return err
}
