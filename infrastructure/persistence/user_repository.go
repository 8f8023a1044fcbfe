package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"social-hub/domain/model"
)

type UserRepository struct{ db *sql.DB }

func NewUserRepository(db *sql.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) GetById(ctx context.Context, id int64) (model.User, error) {
	var user model.User
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, user_name, password, created_at, updated_at FROM users WHERE id=$1`, id)
	err := row.Scan(&user.ID, &user.Name, &user.UserName, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return user, err
	}
	return user, nil
}

func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	var user model.User
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, user_name, password, created_at, updated_at FROM users WHERE user_name=$1`, userName)
	err := row.Scan(&user.ID, &user.Name, &user.UserName, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return user, err
	}
	return user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	return r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, user_name, password, created_at, updated_at) VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		user.Name, user.UserName, user.Password, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
}
