package repository

import (
	"context"
	"database/sql"
	"errors"

	"carenest/internal/auth/model"
	"carenest/pkg/logger"
)

type PostgresUserRepository struct {
	DB *sql.DB
}

var _ UserRepository = (*PostgresUserRepository)(nil)

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

func (r *PostgresUserRepository) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	var hash, role string
	err := r.DB.QueryRowContext(ctx, "SELECT password_hash, role FROM users WHERE username = $1", username).Scan(&hash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrInvalidCredentials
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to look up user %s: %v", username, err)
		return model.User{}, err
	}
	if err := checkPassword(hash, password); err != nil {
		return model.User{}, err
	}
	return model.User{Username: username, Role: role}, nil
}

// Upsert creates the user or replaces their password and role.
func (r *PostgresUserRepository) Upsert(ctx context.Context, username, passwordHash, role string) error {
	if !model.ValidUsername(username) {
		return model.ErrInvalidUsername
	}
	if !model.ValidRole(role) {
		return model.ErrUnknownRole
	}
	_, err := r.DB.ExecContext(ctx, `INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET password_hash = $2, role = $3`, username, passwordHash, role)
	if err != nil {
		logger.Sugar.Errorf("Failed to upsert user %s: %v", username, err)
	}
	return err
}

func (r *PostgresUserRepository) Delete(ctx context.Context, username string) (int64, error) {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE username = $1", username)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete user %s: %v", username, err)
		return 0, err
	}
	return result.RowsAffected()
}
