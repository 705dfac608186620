package user

import (
	"context"
	"database/sql"
	"errors"

	"bitebuddy-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, p CreateParams) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	ListByRole(ctx context.Context, role Role, includeInactive bool) ([]*User, error)
	SetActive(ctx context.Context, id int64, active bool) (*User, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, name, email, phone, password_hash, role, is_active, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Password, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) Create(ctx context.Context, p CreateParams) (*User, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "user.Create"))

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		p.Name, p.Email, p.Phone, p.PasswordHash, p.Role,
	)

	u, err := scanUser(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return nil, ErrEmailExists
		}
		log.Error("db: failed to insert user", zap.String("email", p.Email), zap.Error(err))
		return nil, err
	}

	return u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) FindByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) ListByRole(ctx context.Context, role Role, includeInactive bool) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 AND (is_active OR $2) ORDER BY is_active DESC, name`,
		role, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// SetActive toggles a staff or admin account. Customers are reported as not found.
func (r *repository) SetActive(ctx context.Context, id int64, active bool) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET is_active = $2
		WHERE id = $1 AND role <> 'customer'
		RETURNING `+userColumns,
		id, active,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update user", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}
	return u, nil
}
