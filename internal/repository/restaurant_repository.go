package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dinebook/restaurant-reservation/internal/model"
)

// ErrRestaurantNotFound is returned when a restaurant profile does not
// exist for the requested id or user.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// ErrImageNotFound is returned when an image reference does not belong
// to the restaurant.
var ErrImageNotFound = errors.New("image not found")

// RestaurantRepo persists restaurant info-hub profiles and their image
// references.
type RestaurantRepo struct {
	db *sql.DB
}

func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

const restaurantCols = `id, user_id, name, about_us, opening_hours, phone, address, city, state, created_at, updated_at`

func scanRestaurant(row *sql.Row) (*model.Restaurant, error) {
	var rr model.Restaurant
	var about, hours, phone, addr, city, state sql.NullString
	err := row.Scan(&rr.ID, &rr.UserID, &rr.Name, &about, &hours, &phone, &addr, &city, &state, &rr.CreatedAt, &rr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rr.AboutUs = nullStr(about)
	rr.OpeningHours = nullStr(hours)
	rr.Phone = nullStr(phone)
	rr.Address = nullStr(addr)
	rr.City = nullStr(city)
	rr.State = nullStr(state)
	return &rr, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// CreateForUser inserts the profile row that accompanies a RESTAURANT
// account at registration time.
func (r *RestaurantRepo) CreateForUser(ctx context.Context, userID uint64, name string) (uint64, error) {
	const q = `INSERT INTO restaurants (user_id, name) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, userID, name)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID loads a restaurant profile by its primary key.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	const q = `SELECT ` + restaurantCols + ` FROM restaurants WHERE id = ?`
	rest, err := scanRestaurant(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrRestaurantNotFound
	}
	return rest, err
}

// GetByUserID loads the profile owned by a RESTAURANT account.
func (r *RestaurantRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Restaurant, error) {
	const q = `SELECT ` + restaurantCols + ` FROM restaurants WHERE user_id = ?`
	rest, err := scanRestaurant(r.db.QueryRowContext(ctx, q, userID))
	if err == sql.ErrNoRows {
		return nil, ErrRestaurantNotFound
	}
	return rest, err
}

// ProfileUpdate carries the explicit allow-list of editable info-hub
// fields. Nil pointers leave the stored value untouched; arbitrary
// patch bodies never reach the database.
type ProfileUpdate struct {
	Name         *string
	AboutUs      *string
	OpeningHours *string
	Phone        *string
	Address      *string
	City         *string
	State        *string
}

// UpdateByUserID applies a ProfileUpdate to the caller's own profile.
// Returns ErrRestaurantNotFound when the user has no profile row.
func (r *RestaurantRepo) UpdateByUserID(ctx context.Context, userID uint64, upd ProfileUpdate) error {
	sets := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("name", upd.Name)
	add("about_us", upd.AboutUs)
	add("opening_hours", upd.OpeningHours)
	add("phone", upd.Phone)
	add("address", upd.Address)
	add("city", upd.City)
	add("state", upd.State)
	if len(sets) == 0 {
		return nil
	}
	q := `UPDATE restaurants SET ` + strings.Join(sets, ", ") + ` WHERE user_id = ?`
	args = append(args, userID)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Distinguish a missing profile from a value-identical update.
		if _, gerr := r.GetByUserID(ctx, userID); gerr != nil {
			return gerr
		}
	}
	return nil
}

// ListAll returns every restaurant profile, optionally filtered by city
// and/or state for discovery. Empty filter strings match everything.
func (r *RestaurantRepo) ListAll(ctx context.Context, city, state string) ([]*model.Restaurant, error) {
	q := `SELECT ` + restaurantCols + ` FROM restaurants`
	conds := []string{}
	args := []interface{}{}
	if city != "" {
		conds = append(conds, "city = ?")
		args = append(args, city)
	}
	if state != "" {
		conds = append(conds, "state = ?")
		args = append(args, state)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY name ASC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Restaurant, 0)
	for rows.Next() {
		var rr model.Restaurant
		var about, hours, phone, addr, cty, st sql.NullString
		if err := rows.Scan(&rr.ID, &rr.UserID, &rr.Name, &about, &hours, &phone, &addr, &cty, &st, &rr.CreatedAt, &rr.UpdatedAt); err != nil {
			return nil, err
		}
		rr.AboutUs = nullStr(about)
		rr.OpeningHours = nullStr(hours)
		rr.Phone = nullStr(phone)
		rr.Address = nullStr(addr)
		rr.City = nullStr(cty)
		rr.State = nullStr(st)
		out = append(out, &rr)
	}
	return out, rows.Err()
}

// AddImage stores an image reference for the restaurant. Kind must be
// "logo" or "gallery"; the handler validates this before calling.
func (r *RestaurantRepo) AddImage(ctx context.Context, restaurantID uint64, kind, url string) (uint64, error) {
	const q = `INSERT INTO restaurant_images (restaurant_id, kind, url) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, restaurantID, kind, url)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// DeleteImage removes an image reference, scoped to the owning
// restaurant so one venue cannot delete another's images.
func (r *RestaurantRepo) DeleteImage(ctx context.Context, imageID, restaurantID uint64) error {
	const q = `DELETE FROM restaurant_images WHERE id = ? AND restaurant_id = ?`
	res, err := r.db.ExecContext(ctx, q, imageID, restaurantID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrImageNotFound
	}
	return nil
}

// ListImages returns all image references for a restaurant, logo first.
func (r *RestaurantRepo) ListImages(ctx context.Context, restaurantID uint64) ([]model.RestaurantImage, error) {
	const q = `SELECT id, restaurant_id, kind, url, created_at FROM restaurant_images
	           WHERE restaurant_id = ? ORDER BY kind = 'logo' DESC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RestaurantImage, 0)
	for rows.Next() {
		var img model.RestaurantImage
		if err := rows.Scan(&img.ID, &img.RestaurantID, &img.Kind, &img.URL, &img.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}
