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

type orderRepo struct {
	db  *sql.DB
	log logger.ILogger
}

func NewOrderRepo(db *sql.DB, log logger.ILogger) storage.IOrderStorage {
	return &orderRepo{db: db, log: log}
}

const orderColumns = `
	id, client_id, service, walk_type, pet_name, pet_size, scheduled_at, duration_minutes,
	address, budget, area, comment, status, created_at
`

func (r *orderRepo) CreatePublished(ctx context.Context, order *models.Order) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (client_id, service, walk_type, pet_name, pet_size, scheduled_at, duration_minutes,
		                    address, budget, area, comment, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		order.ClientID,
		order.Service,
		order.WalkType,
		order.PetName,
		order.PetSize,
		order.ScheduledAt.UTC(),
		order.DurationMinutes,
		order.Address,
		order.Budget,
		order.Area,
		order.Comment,
		models.StatusOpen,
		now,
	)
	if err != nil {
		r.log.Error("failed to create order", logger.Int64("client_id", order.ClientID), logger.Error(err))
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	next, err := applyTransition(ctx, tx, id, models.EventPublish)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, next, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		r.log.Error("failed to commit order", logger.Int64("order_id", id), logger.Error(err))
		return nil, err
	}

	created := *order
	created.ID = id
	created.Status = next
	created.ScheduledAt = order.ScheduledAt.UTC()
	created.CreatedAt = now
	return &created, nil
}

func (r *orderRepo) Get(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	query := `SELECT ` + orderColumns + ` FROM orders WHERE client_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, clientID, limit)
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
		INSERT INTO assignments (order_id, walker_id, assigned_at) VALUES (?, ?, ?)
	`)
}

func (r *orderRepo) Reassign(ctx context.Context, orderID, walkerID int64) (*models.Assignment, error) {
	return r.writeAssignment(ctx, orderID, walkerID, models.EventReassign, `
		INSERT INTO assignments (order_id, walker_id, assigned_at) VALUES (?, ?, ?)
		ON CONFLICT (order_id) DO UPDATE SET walker_id = excluded.walker_id, assigned_at = excluded.assigned_at
	`)
}

func (r *orderRepo) writeAssignment(ctx context.Context, orderID, walkerID int64, event models.Event, insert string) (*models.Assignment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	next, err := applyTransition(ctx, tx, orderID, event)
	if err != nil {
		return nil, err
	}

	a := &models.Assignment{OrderID: orderID, WalkerID: walkerID, AssignedAt: time.Now().UTC()}
	if _, err := tx.ExecContext(ctx, insert, a.OrderID, a.WalkerID, a.AssignedAt); err != nil {
		r.log.Error("failed to write assignment", logger.Int64("order_id", orderID), logger.Error(err))
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, next, orderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *orderRepo) Cancel(ctx context.Context, orderID int64) (*models.Assignment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	next, err := applyTransition(ctx, tx, orderID, models.EventCancel)
	if err != nil {
		return nil, err
	}
	a, err := getAssignment(ctx, tx, orderID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, next, orderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *orderRepo) Complete(ctx context.Context, orderID int64) error {
	return r.update(ctx, orderID, models.EventComplete, `UPDATE orders SET status = ? WHERE id = ?`)
}

func (r *orderRepo) Reschedule(ctx context.Context, orderID int64, at time.Time, durationMinutes int) error {
	return r.update(ctx, orderID, models.EventReschedule,
		`UPDATE orders SET status = ?, scheduled_at = ?, duration_minutes = ? WHERE id = ?`,
		at.UTC(), durationMinutes)
}

func (r *orderRepo) UpdateAddress(ctx context.Context, orderID int64, address string) error {
	return r.update(ctx, orderID, models.EventReaddress,
		`UPDATE orders SET status = ?, address = ? WHERE id = ?`, address)
}

// update applies event and runs query with the new status first, args next
// and the order id last.
func (r *orderRepo) update(ctx context.Context, orderID int64, event models.Event, query string, args ...interface{}) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	next, err := applyTransition(ctx, tx, orderID, event)
	if err != nil {
		return err
	}
	params := append([]interface{}{next}, args...)
	params = append(params, orderID)
	if _, err := tx.ExecContext(ctx, query, params...); err != nil {
		r.log.Error("failed to update order", logger.Int64("order_id", orderID), logger.String("event", string(event)), logger.Error(err))
		return err
	}
	return tx.Commit()
}

func (r *orderRepo) GetAssignment(ctx context.Context, orderID int64) (*models.Assignment, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	return getAssignment(ctx, tx, orderID)
}

func getAssignment(ctx context.Context, tx *sql.Tx, orderID int64) (*models.Assignment, error) {
	var a models.Assignment
	err := tx.QueryRowContext(ctx, `SELECT order_id, walker_id, assigned_at FROM assignments WHERE order_id = ?`, orderID).
		Scan(&a.OrderID, &a.WalkerID, &a.AssignedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	a.AssignedAt = a.AssignedAt.UTC()
	return &a, nil
}

// applyTransition reads the current status inside tx and returns the status
// event leads to. The connection pool holds one connection, so the read and
// the following writes cannot interleave with another transaction.
func applyTransition(ctx context.Context, tx *sql.Tx, orderID int64, event models.Event) (models.Status, error) {
	var status models.Status
	err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return models.Transition(status, event)
}

func scanOrder(row scanner) (*models.Order, error) {
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
