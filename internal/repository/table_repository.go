package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dinebook/restaurant-reservation/internal/model"
)

// ErrTableNotFound is returned when a table does not exist or does not
// belong to the acting restaurant.
var ErrTableNotFound = errors.New("table not found")

// TableRepo persists restaurant table inventory. The available flag is
// floor state managed by staff; it is never derived from bookings.
type TableRepo struct {
	db *sql.DB
}

func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableCols = `id, restaurant_id, floor, table_number, capacity, available, created_at, updated_at`

func scanTable(row *sql.Row) (*model.Table, error) {
	var t model.Table
	err := row.Scan(&t.ID, &t.RestaurantID, &t.Floor, &t.TableNumber, &t.Capacity, &t.Available, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a table and populates the generated ID and timestamps
// on the provided record. Duplicate (restaurant, floor, number)
// positions map to ErrConflict.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO tables (restaurant_id, floor, table_number, capacity, available)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.RestaurantID, t.Floor, t.TableNumber, t.Capacity, t.Available)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	const sel = `SELECT ` + tableCols + ` FROM tables WHERE id = ?`
	fresh, err := scanTable(r.db.QueryRowContext(ctx, sel, t.ID))
	if err != nil {
		return err
	}
	*t = *fresh
	return nil
}

// ListByRestaurant returns every table of a restaurant ordered by floor
// then table number.
func (r *TableRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Table, error) {
	const q = `SELECT ` + tableCols + ` FROM tables
	           WHERE restaurant_id = ? ORDER BY floor ASC, table_number ASC`
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Table, 0)
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.Floor, &t.TableNumber, &t.Capacity, &t.Available, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByIDAndRestaurant loads a single table scoped to its restaurant.
func (r *TableRepo) GetByIDAndRestaurant(ctx context.Context, id, restaurantID uint64) (*model.Table, error) {
	const q = `SELECT ` + tableCols + ` FROM tables WHERE id = ? AND restaurant_id = ?`
	t, err := scanTable(r.db.QueryRowContext(ctx, q, id, restaurantID))
	if err == sql.ErrNoRows {
		return nil, ErrTableNotFound
	}
	return t, err
}

// TableUpdate is the explicit allow-list of editable table fields.
// The available flag is deliberately excluded; it changes only through
// SetAvailability.
type TableUpdate struct {
	Floor       *string
	TableNumber *uint32
	Capacity    *uint32
}

// UpdateByIDAndRestaurant applies a TableUpdate scoped to the owning
// restaurant and returns the refreshed record.
func (r *TableRepo) UpdateByIDAndRestaurant(ctx context.Context, id, restaurantID uint64, upd TableUpdate) (*model.Table, error) {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)
	if upd.Floor != nil {
		sets = append(sets, "floor = ?")
		args = append(args, *upd.Floor)
	}
	if upd.TableNumber != nil {
		sets = append(sets, "table_number = ?")
		args = append(args, *upd.TableNumber)
	}
	if upd.Capacity != nil {
		sets = append(sets, "capacity = ?")
		args = append(args, *upd.Capacity)
	}
	if len(sets) > 0 {
		q := `UPDATE tables SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND restaurant_id = ?`
		args = append(args, id, restaurantID)
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			if strings.Contains(err.Error(), "1062") {
				return nil, ErrConflict
			}
			return nil, err
		}
	}
	return r.GetByIDAndRestaurant(ctx, id, restaurantID)
}

// SetAvailability flips the manual availability flag and returns the
// refreshed record.
func (r *TableRepo) SetAvailability(ctx context.Context, id, restaurantID uint64, available bool) (*model.Table, error) {
	const q = `UPDATE tables SET available = ? WHERE id = ? AND restaurant_id = ?`
	res, err := r.db.ExecContext(ctx, q, available, id, restaurantID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Zero rows may mean missing or unchanged; resolve via lookup.
		if _, gerr := r.GetByIDAndRestaurant(ctx, id, restaurantID); gerr != nil {
			return nil, gerr
		}
	}
	return r.GetByIDAndRestaurant(ctx, id, restaurantID)
}

// DeleteByIDAndRestaurant removes a table scoped to its restaurant.
func (r *TableRepo) DeleteByIDAndRestaurant(ctx context.Context, id, restaurantID uint64) error {
	const q = `DELETE FROM tables WHERE id = ? AND restaurant_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, restaurantID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTableNotFound
	}
	return nil
}
