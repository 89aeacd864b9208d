package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dogbot/pkg/logger"
	"dogbot/pkg/models"
	"dogbot/storage"
)

type walkerRepo struct {
	db  *sql.DB
	log logger.ILogger
}

func NewWalkerRepo(db *sql.DB, log logger.ILogger) storage.IWalkerStorage {
	return &walkerRepo{db: db, log: log}
}

const profileColumns = `
	wp.walker_id, wp.phone, wp.city, wp.areas, wp.experience, wp.base_rate, wp.bio, wp.is_approved, wp.created_at,
	COALESCE(u.username, ''), COALESCE(u.display_name, '')
`

func (r *walkerRepo) Register(ctx context.Context, user *models.User, profile *models.WalkerProfile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, role, username, display_name, phone)
		VALUES (?, 'walker', ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET role = 'walker',
			username = CASE WHEN excluded.username <> '' THEN excluded.username ELSE users.username END,
			display_name = CASE WHEN excluded.display_name <> '' THEN excluded.display_name ELSE users.display_name END,
			phone = COALESCE(excluded.phone, users.phone),
			updated_at = CURRENT_TIMESTAMP
	`, user.ID, user.Username, user.DisplayName, user.Phone)
	if err != nil {
		r.log.Error("failed to upsert walker user", logger.Int64("user_id", user.ID), logger.Error(err))
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO walker_profiles (walker_id, phone, city, areas, experience, base_rate, bio, is_approved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT (walker_id) DO UPDATE
		SET phone = excluded.phone,
			city = excluded.city,
			areas = excluded.areas,
			experience = excluded.experience,
			base_rate = excluded.base_rate,
			bio = excluded.bio
	`, user.ID, profile.Phone, profile.City, profile.Areas, profile.Experience, profile.BaseRate, profile.Bio, time.Now().UTC())
	if err != nil {
		r.log.Error("failed to upsert walker profile", logger.Int64("user_id", user.ID), logger.Error(err))
		return err
	}

	return tx.Commit()
}

func (r *walkerRepo) GetProfile(ctx context.Context, walkerID int64) (*models.WalkerProfile, error) {
	query := `SELECT ` + profileColumns + `
		FROM walker_profiles wp
		LEFT JOIN users u ON u.id = wp.walker_id
		WHERE wp.walker_id = ?`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, walkerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to get walker profile", logger.Int64("walker_id", walkerID), logger.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *walkerRepo) UpdateAreas(ctx context.Context, walkerID int64, areas string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE walker_profiles SET areas = ? WHERE walker_id = ?`, areas, walkerID)
	return affected(res, err)
}

func (r *walkerRepo) UpdateRate(ctx context.Context, walkerID int64, rate int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE walker_profiles SET base_rate = ? WHERE walker_id = ?`, rate, walkerID)
	return affected(res, err)
}

func (r *walkerRepo) SetApproval(ctx context.Context, walkerID int64, approved bool) error {
	query := `
		INSERT INTO walker_profiles (walker_id, is_approved, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (walker_id) DO UPDATE SET is_approved = excluded.is_approved
	`
	_, err := r.db.ExecContext(ctx, query, walkerID, approved, time.Now().UTC())
	if err != nil {
		r.log.Error("failed to set walker approval", logger.Int64("walker_id", walkerID), logger.Error(err))
	}
	return err
}

func (r *walkerRepo) ListApproved(ctx context.Context) ([]*models.WalkerProfile, error) {
	query := `SELECT ` + profileColumns + `
		FROM walker_profiles wp
		JOIN users u ON u.id = wp.walker_id
		WHERE u.role = 'walker' AND wp.is_approved = 1
		ORDER BY wp.walker_id`
	return r.scanProfiles(ctx, query)
}

func (r *walkerRepo) ListPending(ctx context.Context) ([]*models.WalkerProfile, error) {
	query := `
		SELECT u.id, wp.phone, wp.city, COALESCE(wp.areas, ''), wp.experience, wp.base_rate, wp.bio,
		       COALESCE(wp.is_approved, 0), u.created_at, u.username, u.display_name
		FROM users u
		LEFT JOIN walker_profiles wp ON wp.walker_id = u.id
		WHERE u.role = 'walker' AND COALESCE(wp.is_approved, 0) = 0
		ORDER BY u.id`
	return r.scanProfiles(ctx, query)
}

func (r *walkerRepo) scanProfiles(ctx context.Context, query string, args ...interface{}) ([]*models.WalkerProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.WalkerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row scanner) (*models.WalkerProfile, error) {
	var p models.WalkerProfile
	err := row.Scan(
		&p.WalkerID, &p.Phone, &p.City, &p.Areas, &p.Experience, &p.BaseRate, &p.Bio, &p.IsApproved, &p.CreatedAt,
		&p.Username, &p.DisplayName,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
