package repository

import (
	"context"
	"fmt"

	"jobstatus-api/internal/database"
	"jobstatus-api/internal/model"
)

type UserRepository struct {
	db executor
}

func NewUserRepository(db executor) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	env, err := r.db.Execute(ctx, database.Query{
		Kind:      database.KindSelect,
		Statement: `SELECT user_id, username, email, password FROM api_users WHERE username = ?`,
		Args:      []any{username},
	})
	if err != nil {
		return model.User{}, fmt.Errorf("find user by username: %w", err)
	}
	if !env.Status {
		return model.User{}, model.ErrUserNotFound
	}

	row := env.Rows[0]
	id, err := asInt64(row[0])
	if err != nil {
		return model.User{}, fmt.Errorf("read user id: %w", err)
	}

	return model.User{
		ID:           id,
		Username:     asString(row[1]),
		Email:        asString(row[2]),
		PasswordHash: asString(row[3]),
	}, nil
}

// Create inserts u and returns it with the id assigned by the store.
func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	env, err := r.db.Execute(ctx, database.Query{
		Kind:      database.KindInsert,
		Statement: `INSERT INTO api_users (username, email, password) VALUES (?, ?, ?)`,
		Args:      []any{u.Username, u.Email, u.PasswordHash},
		Commit:    true,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	if !env.Status {
		return model.User{}, fmt.Errorf("create user %q: no rows inserted", u.Username)
	}

	return r.FindByUsername(ctx, u.Username)
}
