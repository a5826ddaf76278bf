package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unitrack/attendance-api/internal/models"
)

// UserRepository handles persistence of accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, role, student_id, intake, section, department, created_by, is_active, created_at`

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO users (id, email, password_hash, name, role, student_id, intake, section, department, created_by, is_active, created_at)
        VALUES (:id, :email, :password_hash, :name, :role, :student_id, :intake, :section, :department, :created_by, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByID returns a user by internal id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail returns a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsStudentID reports whether any student already holds the external
// student identifier.
func (r *UserRepository) ExistsStudentID(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT 1 FROM users WHERE role = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, models.RoleStudent, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student id: %w", err)
	}
	return true, nil
}

// List returns users, optionally filtered by role.
func (r *UserRepository) List(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if role != "" {
		query := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 ORDER BY created_at`, userColumns)
		if err := r.db.SelectContext(ctx, &users, query, role); err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		return users, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at`, userColumns)
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Delete hard-deletes a user, returning the number of rows removed.
func (r *UserRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user rows: %w", err)
	}
	return affected, nil
}
