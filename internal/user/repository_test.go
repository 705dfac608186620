package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "name", "email", "phone", "password_hash", "role", "is_active", "created_at"}

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	params := CreateParams{Name: "Asha", Email: "asha@example.com", Phone: "9876543210", PasswordHash: "h", Role: RoleCustomer}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users \(name, email, phone, password_hash, role\)`).
			WithArgs("Asha", "asha@example.com", "9876543210", "h", "customer").
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow(1, "Asha", "asha@example.com", "9876543210", "h", "customer", true, time.Now()))

		u, err := repo.Create(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, RoleCustomer, u.Role)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		_, err := repo.Create(ctx, params)
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("db error"))

		_, err := repo.Create(ctx, params)
		assert.EqualError(t, err, "db error")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
			WithArgs("admin@example.com").
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow(3, "Admin", "admin@example.com", "9876543210", "h", "admin", true, time.Now()))

		u, err := repo.FindByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, u.Role)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_ListByRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT .* FROM users WHERE role = \$1 AND \(is_active OR \$2\) ORDER BY is_active DESC, name`).
		WithArgs("staff", false).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(4, "Bala", "bala@example.com", "9876500000", "h", "staff", true, time.Now()).
			AddRow(6, "Chitra", "chitra@example.com", "9876511111", "h", "staff", true, time.Now()))

	staff, err := repo.ListByRole(context.Background(), RoleStaff, false)
	require.NoError(t, err)
	assert.Len(t, staff, 2)
	assert.Equal(t, "Chitra", staff[1].Name)
}

func TestRepository_SetActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users SET is_active = \$2\s+WHERE id = \$1 AND role <> 'customer'`).
			WithArgs(4, false).
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow(4, "Bala", "bala@example.com", "9876500000", "h", "staff", false, time.Now()))

		u, err := repo.SetActive(context.Background(), 4, false)
		require.NoError(t, err)
		assert.False(t, u.IsActive)
	})

	t.Run("CustomerOrMissing", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users SET is_active`).
			WithArgs(2, false).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.SetActive(context.Background(), 2, false)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users SET is_active`).
			WithArgs(4, true).
			WillReturnError(errors.New("db error"))

		_, err := repo.SetActive(context.Background(), 4, true)
		assert.EqualError(t, err, "db error")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
