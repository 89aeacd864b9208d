package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dogbot/pkg/logger"
	"dogbot/pkg/models"
	"dogbot/storage"
)

type orderRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewOrderRepo(db *pgxpool.Pool, log logger.ILogger) storage.IOrderStorage {
	return &orderRepo{db: db, log: log}
}

const orderColumns = `
	id, client_id, service, walk_type, pet_name, pet_size, scheduled_at, duration_minutes,
	address, budget, area, comment, status, created_at
`

func (r *orderRepo) CreatePublished(ctx context.Context, order *models.Order) (*models.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created := *order
	created.ScheduledAt = order.ScheduledAt.UTC()
	query := `
		INSERT INTO orders (client_id, service, walk_type, pet_name, pet_size, scheduled_at, duration_minutes,
		                    address, budget, area, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	err = tx.QueryRow(ctx, query,
		order.ClientID,
		order.Service,
		order.WalkType,
		order.PetName,
		order.PetSize,
		created.ScheduledAt,
		order.DurationMinutes,
		order.Address,
		order.Budget,
		order.Area,
		order.Comment,
		models.StatusOpen,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		r.log.Error("failed to create order", logger.Int64("client_id", order.ClientID), logger.Error(err))
		return nil, err
	}

	next, err := lockAndTransition(ctx, tx, created.ID, models.EventPublish)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, next, created.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		r.log.Error("failed to commit order", logger.Int64("order_id", created.ID), logger.Error(err))
		return nil, err
	}

	created.Status = next
	created.CreatedAt = created.CreatedAt.UTC()
	return &created, nil
}

func (r *orderRepo) Get(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to get order by id", logger.Int64("id", id), logger.Error(err))
		return nil, err
	}
	return o, nil
}

func (r *orderRepo) ListByClient(ctx context.Context, clientID int64, limit int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE client_id = $1 ORDER BY id DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *orderRepo) Assign(ctx context.Context, orderID, walkerID int64) (*models.Assignment, error) {
	return r.writeAssignment(ctx, orderID, walkerID, models.EventAssign, `
		INSERT INTO assignments (order_id, walker_id, assigned_at) VALUES ($1, $2, $3)
	`)
}

func (r *orderRepo) Reassign(ctx context.Context, orderID, walkerID int64) (*models.Assignment, error) {
	return r.writeAssignment(ctx, orderID, walkerID, models.EventReassign, `
		INSERT INTO assignments (order_id, walker_id, assigned_at) VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO UPDATE SET walker_id = EXCLUDED.walker_id, assigned_at = EXCLUDED.assigned_at
	`)
}

func (r *orderRepo) writeAssignment(ctx context.Context, orderID, walkerID int64, event models.Event, insert string) (*models.Assignment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	next, err := lockAndTransition(ctx, tx, orderID, event)
	if err != nil {
		return nil, err
	}

	a := &models.Assignment{OrderID: orderID, WalkerID: walkerID, AssignedAt: time.Now().UTC()}
	if _, err := tx.Exec(ctx, insert, a.OrderID, a.WalkerID, a.AssignedAt); err != nil {
		r.log.Error("failed to write assignment", logger.Int64("order_id", orderID), logger.Error(err))
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, next, orderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *orderRepo) Cancel(ctx context.Context, orderID int64) (*models.Assignment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	next, err := lockAndTransition(ctx, tx, orderID, models.EventCancel)
	if err != nil {
		return nil, err
	}
	a, err := getAssignment(ctx, tx, orderID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, next, orderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *orderRepo) Complete(ctx context.Context, orderID int64) error {
	return r.update(ctx, orderID, models.EventComplete, `UPDATE orders SET status = $1 WHERE id = $2`)
}

func (r *orderRepo) Reschedule(ctx context.Context, orderID int64, at time.Time, durationMinutes int) error {
	return r.update(ctx, orderID, models.EventReschedule,
		`UPDATE orders SET status = $1, scheduled_at = $2, duration_minutes = $3 WHERE id = $4`,
		at.UTC(), durationMinutes)
}

func (r *orderRepo) UpdateAddress(ctx context.Context, orderID int64, address string) error {
	return r.update(ctx, orderID, models.EventReaddress,
		`UPDATE orders SET status = $1, address = $2 WHERE id = $3`, address)
}

// update applies event and runs query with the new status as $1 and the
// order id as the last placeholder.
func (r *orderRepo) update(ctx context.Context, orderID int64, event models.Event, query string, args ...interface{}) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	next, err := lockAndTransition(ctx, tx, orderID, event)
	if err != nil {
		return err
	}
	params := append([]interface{}{next}, args...)
	params = append(params, orderID)
	if _, err := tx.Exec(ctx, query, params...); err != nil {
		r.log.Error("failed to update order", logger.Int64("order_id", orderID), logger.String("event", string(event)), logger.Error(err))
		return err
	}
	return tx.Commit(ctx)
}

func (r *orderRepo) GetAssignment(ctx context.Context, orderID int64) (*models.Assignment, error) {
	var a models.Assignment
	err := r.db.QueryRow(ctx, `SELECT order_id, walker_id, assigned_at FROM assignments WHERE order_id = $1`, orderID).
		Scan(&a.OrderID, &a.WalkerID, &a.AssignedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	a.AssignedAt = a.AssignedAt.UTC()
	return &a, nil
}

func getAssignment(ctx context.Context, tx pgx.Tx, orderID int64) (*models.Assignment, error) {
	var a models.Assignment
	err := tx.QueryRow(ctx, `SELECT order_id, walker_id, assigned_at FROM assignments WHERE order_id = $1`, orderID).
		Scan(&a.OrderID, &a.WalkerID, &a.AssignedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	a.AssignedAt = a.AssignedAt.UTC()
	return &a, nil
}

// lockAndTransition takes the row lock on the order and returns the status
// event leads to. Concurrent writers queue on the lock and see the committed
// status once they get it.
func lockAndTransition(ctx context.Context, tx pgx.Tx, orderID int64, event models.Event) (models.Status, error) {
	var status models.Status
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return models.Transition(status, event)
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.ClientID, &o.Service, &o.WalkType, &o.PetName, &o.PetSize, &o.ScheduledAt, &o.DurationMinutes,
		&o.Address, &o.Budget, &o.Area, &o.Comment, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.ScheduledAt = o.ScheduledAt.UTC()
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}
