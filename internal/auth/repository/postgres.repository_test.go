package repository

import (
	"context"
	"errors"
	"testing"

	"carenest/internal/auth/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresAuthenticate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery("SELECT password_hash, role FROM users WHERE username = \\$1").
		WithArgs("carol").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash", "role"}).AddRow(mustHash(t, "care123"), model.RoleCaretaker))

	user, err := repo.Authenticate(context.Background(), "carol", "care123")
	require.NoError(t, err)
	assert.Equal(t, model.User{Username: "carol", Role: model.RoleCaretaker}, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthenticateFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery("SELECT password_hash, role FROM users").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash", "role"}))
	_, err = repo.Authenticate(context.Background(), "ghost", "x")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	mock.ExpectQuery("SELECT password_hash, role FROM users").
		WithArgs("carol").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash", "role"}).AddRow(mustHash(t, "care123"), model.RoleCaretaker))
	_, err = repo.Authenticate(context.Background(), "carol", "wrong")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	dbErr := errors.New("connection reset")
	mock.ExpectQuery("SELECT password_hash, role FROM users").
		WithArgs("carol").
		WillReturnError(dbErr)
	_, err = repo.Authenticate(context.Background(), "carol", "care123")
	assert.ErrorIs(t, err, dbErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertAndDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	mock.ExpectExec("INSERT INTO users \\(username, password_hash, role\\) VALUES \\(\\$1, \\$2, \\$3\\)").
		WithArgs("nina", "hash", model.RolePatient).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Upsert(context.Background(), "nina", "hash", model.RolePatient))

	assert.ErrorIs(t, repo.Upsert(context.Background(), "nina", "hash", "wizard"), model.ErrUnknownRole)
	assert.ErrorIs(t, repo.Upsert(context.Background(), "..", "hash", model.RolePatient), model.ErrInvalidUsername)

	mock.ExpectExec("DELETE FROM users WHERE username = \\$1").
		WithArgs("nina").
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err := repo.Delete(context.Background(), "nina")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
