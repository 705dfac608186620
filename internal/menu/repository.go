package menu

import (
	"context"
	"database/sql"

	"bitebuddy-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// GetByIDs returns the items found, keyed by id. Missing ids are simply absent.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*MenuItem, error)
	ListByService(ctx context.Context, serviceID int64, onlyAvailable bool) ([]*MenuItem, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*MenuItem, error) {
	items := make(map[int64]*MenuItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, service_id, name, price, is_available
		FROM menu_items
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to query menu items", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.ServiceID, &m.Name, &m.Price, &m.IsAvailable); err != nil {
			return nil, err
		}
		items[m.ID] = &m
	}

	return items, rows.Err()
}

func (r *repository) ListByService(ctx context.Context, serviceID int64, onlyAvailable bool) ([]*MenuItem, error) {
	query := `
		SELECT id, service_id, name, price, is_available
		FROM menu_items
		WHERE service_id = $1`
	if onlyAvailable {
		query += ` AND is_available`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.ServiceID, &m.Name, &m.Price, &m.IsAvailable); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}

	return items, rows.Err()
}
