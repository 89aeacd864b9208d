package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dogbot/pkg/logger"
	"dogbot/pkg/models"
	"dogbot/storage"
)

type walkerRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewWalkerRepo(db *pgxpool.Pool, log logger.ILogger) storage.IWalkerStorage {
	return &walkerRepo{db: db, log: log}
}

const profileColumns = `
	wp.walker_id, wp.phone, wp.city, wp.areas, wp.experience, wp.base_rate, wp.bio, wp.is_approved, wp.created_at,
	COALESCE(u.username, ''), COALESCE(u.display_name, '')
`

func (r *walkerRepo) Register(ctx context.Context, user *models.User, profile *models.WalkerProfile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, role, username, display_name, phone)
		VALUES ($1, 'walker', $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET role = 'walker',
			username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
			display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), users.display_name),
			phone = COALESCE(EXCLUDED.phone, users.phone),
			updated_at = NOW()
	`, user.ID, user.Username, user.DisplayName, user.Phone)
	if err != nil {
		r.log.Error("failed to upsert walker user", logger.Int64("user_id", user.ID), logger.Error(err))
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO walker_profiles (walker_id, phone, city, areas, experience, base_rate, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (walker_id) DO UPDATE
		SET phone = EXCLUDED.phone,
			city = EXCLUDED.city,
			areas = EXCLUDED.areas,
			experience = EXCLUDED.experience,
			base_rate = EXCLUDED.base_rate,
			bio = EXCLUDED.bio
	`, user.ID, profile.Phone, profile.City, profile.Areas, profile.Experience, profile.BaseRate, profile.Bio)
	if err != nil {
		r.log.Error("failed to upsert walker profile", logger.Int64("user_id", user.ID), logger.Error(err))
		return err
	}

	return tx.Commit(ctx)
}

func (r *walkerRepo) GetProfile(ctx context.Context, walkerID int64) (*models.WalkerProfile, error) {
	query := `SELECT ` + profileColumns + `
		FROM walker_profiles wp
		LEFT JOIN users u ON u.id = wp.walker_id
		WHERE wp.walker_id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, walkerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to get walker profile", logger.Int64("walker_id", walkerID), logger.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *walkerRepo) UpdateAreas(ctx context.Context, walkerID int64, areas string) error {
	res, err := r.db.Exec(ctx, `UPDATE walker_profiles SET areas = $1 WHERE walker_id = $2`, areas, walkerID)
	return affected(res, err)
}

func (r *walkerRepo) UpdateRate(ctx context.Context, walkerID int64, rate int) error {
	res, err := r.db.Exec(ctx, `UPDATE walker_profiles SET base_rate = $1 WHERE walker_id = $2`, rate, walkerID)
	return affected(res, err)
}

func (r *walkerRepo) SetApproval(ctx context.Context, walkerID int64, approved bool) error {
	query := `
		INSERT INTO walker_profiles (walker_id, is_approved)
		VALUES ($1, $2)
		ON CONFLICT (walker_id) DO UPDATE SET is_approved = EXCLUDED.is_approved
	`
	_, err := r.db.Exec(ctx, query, walkerID, approved)
	if err != nil {
		r.log.Error("failed to set walker approval", logger.Int64("walker_id", walkerID), logger.Error(err))
	}
	return err
}

func (r *walkerRepo) ListApproved(ctx context.Context) ([]*models.WalkerProfile, error) {
	query := `SELECT ` + profileColumns + `
		FROM walker_profiles wp
		JOIN users u ON u.id = wp.walker_id
		WHERE u.role = 'walker' AND wp.is_approved
		ORDER BY wp.walker_id`
	return r.scanProfiles(ctx, query)
}

func (r *walkerRepo) ListPending(ctx context.Context) ([]*models.WalkerProfile, error) {
	query := `
		SELECT u.id, wp.phone, wp.city, COALESCE(wp.areas, ''), wp.experience, wp.base_rate, wp.bio,
		       COALESCE(wp.is_approved, FALSE), u.created_at, u.username, u.display_name
		FROM users u
		LEFT JOIN walker_profiles wp ON wp.walker_id = u.id
		WHERE u.role = 'walker' AND NOT COALESCE(wp.is_approved, FALSE)
		ORDER BY u.id`
	return r.scanProfiles(ctx, query)
}

func (r *walkerRepo) scanProfiles(ctx context.Context, query string, args ...interface{}) ([]*models.WalkerProfile, error) {
	rows, err := r.db.Query(ctx, query, args...)
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

func scanProfile(row pgx.Row) (*models.WalkerProfile, error) {
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

func affected(res pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
