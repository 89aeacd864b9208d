package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dogbot/pkg/logger"
	"dogbot/pkg/models"
	"dogbot/storage"
)

type userRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewUserRepo(db *pgxpool.Pool, log logger.ILogger) storage.IUserStorage {
	return &userRepo{db: db, log: log}
}

func (r *userRepo) Upsert(ctx context.Context, user *models.User) error {
	role := user.Role
	if role == "" {
		role = models.RoleClient
	}
	query := `
		INSERT INTO users (id, role, username, display_name, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
			display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), users.display_name),
			phone = COALESCE(EXCLUDED.phone, users.phone),
			updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, user.ID, role, user.Username, user.DisplayName, user.Phone)
	if err != nil {
		r.log.Error("failed to upsert user", logger.Int64("user_id", user.ID), logger.Error(err))
		return err
	}
	return nil
}

func (r *userRepo) Get(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT id, role, username, display_name, phone FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Role, &user.Username, &user.DisplayName, &user.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to get user", logger.Int64("user_id", id), logger.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) SetRole(ctx context.Context, id int64, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	query := `
		INSERT INTO users (id, role) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, id, role)
	return err
}
