package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"jobportal/internal/common"
	"jobportal/internal/database"
	"jobportal/internal/domain/user"
)

const userColumns = `id, name, email, COALESCE(phone, ''), password_hash, role, location, skills, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u user.User) (*user.User, error) {
	if u.ID.IsZero() {
		u.ID = common.NewUUID()
	}
	now := time.Now().UTC()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Skills = nonNil(u.Skills)
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, name, email, phone, password_hash, role, location, skills, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Name, u.Email, nullString(u.Phone), u.PasswordHash, u.Role, u.Location, pq.Array(u.Skills), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, common.NewError(common.CodeInvalidState, "User already exists", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to create user", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id common.UUID) (*user.User, error) {
	return r.one(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.one(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))))
}

func (r *UserRepository) Update(ctx context.Context, u user.User) (*user.User, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET name = $1, phone = $2, location = $3, skills = $4, updated_at = $5 WHERE id = $6`,
		u.Name, nullString(u.Phone), u.Location, pq.Array(nonNil(u.Skills)), time.Now().UTC(), u.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, common.NewError(common.CodeInvalidState, "Phone number already in use", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to update user", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, common.NewError(common.CodeNotFound, "User not found", sql.ErrNoRows)
	}
	return r.GetByID(ctx, u.ID)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id common.UUID, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to update password", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return common.NewError(common.CodeNotFound, "User not found", sql.ErrNoRows)
	}
	return nil
}

func (r *UserRepository) one(row *sql.Row) (*user.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "User not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load user", err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.Location, pq.Array(&u.Skills), &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Skills = nonNil(u.Skills)
	return &u, nil
}
