package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dogbot/pkg/logger"
	"dogbot/pkg/models"
	"dogbot/storage"
)

type userRepo struct {
	db  *sql.DB
	log logger.ILogger
}

func NewUserRepo(db *sql.DB, log logger.ILogger) storage.IUserStorage {
	return &userRepo{db: db, log: log}
}

func (r *userRepo) Upsert(ctx context.Context, user *models.User) error {
	role := user.Role
	if role == "" {
		role = models.RoleClient
	}
	query := `
		INSERT INTO users (id, role, username, display_name, phone)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET username = CASE WHEN excluded.username <> '' THEN excluded.username ELSE users.username END,
			display_name = CASE WHEN excluded.display_name <> '' THEN excluded.display_name ELSE users.display_name END,
			phone = COALESCE(excluded.phone, users.phone),
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query, user.ID, role, user.Username, user.DisplayName, user.Phone)
	if err != nil {
		r.log.Error("failed to upsert user", logger.Int64("user_id", user.ID), logger.Error(err))
		return err
	}
	return nil
}

func (r *userRepo) Get(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	query := `SELECT id, role, username, display_name, phone FROM users WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Role, &u.Username, &u.DisplayName, &u.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to get user", logger.Int64("user_id", id), logger.Error(err))
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) SetRole(ctx context.Context, id int64, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	query := `
		INSERT INTO users (id, role) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET role = excluded.role, updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query, id, role)
	return err
}
