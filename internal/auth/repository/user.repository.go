package repository

import (
	"context"
	"database/sql"

	"notevault/internal/auth/model"
	"notevault/pkg/logger"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`,
		user.ID, user.Username, user.Email, user.PasswordHash,
	).Scan(&user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return model.ErrUserExists
		}
		logger.Sugar.Errorf("Failed to create user %s: %v", user.Email, err)
		return errors.Wrap(err, "insert user")
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`,
		email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrInvalidCredentials
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to look up user %s: %v", email, err)
		return nil, errors.Wrap(err, "select user")
	}
	return &u, nil
}
