package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dogbot/pkg/logger"
	"dogbot/pkg/models"
	"dogbot/storage"
)

type proposalRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewProposalRepo(db *pgxpool.Pool, log logger.ILogger) storage.IProposalStorage {
	return &proposalRepo{db: db, log: log}
}

func (r *proposalRepo) Upsert(ctx context.Context, p *models.Proposal) (int64, error) {
	query := `
		INSERT INTO proposals (order_id, walker_id, price, note)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id, walker_id) DO UPDATE
		SET price = EXCLUDED.price, note = EXCLUDED.note
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRow(ctx, query, p.OrderID, p.WalkerID, p.Price, p.Note).Scan(&id); err != nil {
		r.log.Error("failed to upsert proposal", logger.Int64("order_id", p.OrderID), logger.Int64("walker_id", p.WalkerID), logger.Error(err))
		return 0, err
	}
	return id, nil
}

func (r *proposalRepo) Get(ctx context.Context, orderID, walkerID int64) (*models.Proposal, error) {
	var p models.Proposal
	query := `SELECT id, order_id, walker_id, price, note, created_at FROM proposals WHERE order_id = $1 AND walker_id = $2`
	err := r.db.QueryRow(ctx, query, orderID, walkerID).
		Scan(&p.ID, &p.OrderID, &p.WalkerID, &p.Price, &p.Note, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (r *proposalRepo) ListByOrder(ctx context.Context, orderID int64) ([]*models.Candidate, error) {
	query := `
		SELECT p.id, p.order_id, p.walker_id, p.price, p.note, p.created_at,
		       COALESCE(u.username, ''), COALESCE(u.display_name, ''),
		       wp.phone, wp.base_rate, COALESCE(wp.areas, ''), COALESCE(wp.is_approved, FALSE)
		FROM proposals p
		LEFT JOIN users u ON u.id = p.walker_id
		LEFT JOIN walker_profiles wp ON wp.walker_id = p.walker_id
		WHERE p.order_id = $1
		ORDER BY p.price ASC, p.id ASC
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Candidate
	for rows.Next() {
		var c models.Candidate
		err := rows.Scan(
			&c.ID, &c.OrderID, &c.WalkerID, &c.Price, &c.Note, &c.CreatedAt,
			&c.Username, &c.DisplayName, &c.Phone, &c.BaseRate, &c.Areas, &c.IsApproved,
		)
		if err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		out = append(out, &c)
	}
	return out, rows.Err()
}
