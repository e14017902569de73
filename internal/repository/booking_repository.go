package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dinebook/restaurant-reservation/internal/model"
)

// ErrBookingNotFound is returned when a booking does not exist, or when
// a diner-scoped lookup finds no booking owned by that diner. The two
// cases are deliberately indistinguishable so a diner cannot probe for
// other diners' bookings.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo persists booking records and performs the status
// mutations of the lifecycle. Every mutation keeps the confirmed
// column mirroring status = 'confirmed', and every mutation touches
// updated_at via the schema's ON UPDATE clause.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = `id, reference, diner_id, restaurant_id, name, phone, special_request,
	date, time, total_people, status, confirmed, arrival_status,
	cancellation_source, cancellation_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var special, reason sql.NullString
	err := row.Scan(
		&b.ID, &b.Reference, &b.DinerID, &b.RestaurantID, &b.Name, &b.Phone, &special,
		&b.Date, &b.Time, &b.TotalPeople, &b.Status, &b.Confirmed, &b.ArrivalStatus,
		&b.CancellationSource, &reason, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.SpecialRequest = nullStr(special)
	b.CancellationReason = nullStr(reason)
	return &b, nil
}

// Create inserts a new booking in pending state and reads the full row
// back so defaults and timestamps are populated on the returned record.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (reference, diner_id, restaurant_id, name, phone, special_request, date, time, total_people, status, confirmed)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var special interface{}
	if b.SpecialRequest != nil {
		special = *b.SpecialRequest
	}
	res, err := r.db.ExecContext(ctx, q,
		b.Reference, b.DinerID, b.RestaurantID, b.Name, b.Phone, special,
		b.Date.Format("2006-01-02"), b.Time, b.TotalPeople, model.StatusPending, false,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = *fresh
	return nil
}

// GetByID loads a booking by primary key.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// GetByIDAndDiner loads a booking only when it belongs to the given
// diner. A mismatch reads the same as a missing booking.
func (r *BookingRepo) GetByIDAndDiner(ctx context.Context, id, dinerID uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = ? AND diner_id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id, dinerID))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// ListByDiner returns all of a diner's bookings, newest first.
func (r *BookingRepo) ListByDiner(ctx context.Context, dinerID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
	           WHERE diner_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, dinerID)
}

// ListByRestaurantAndStatus returns a restaurant's bookings in the
// given status, ordered by reservation date then time ascending. This
// ordering is what both the pending sweep and the confirmed listing
// present to staff.
func (r *BookingRepo) ListByRestaurantAndStatus(ctx context.Context, restaurantID uint64, status string) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
	           WHERE restaurant_id = ? AND status = ? ORDER BY date ASC, time ASC`
	return r.list(ctx, q, restaurantID, status)
}

// ListAllPending returns every pending booking across restaurants; the
// periodic sweep job walks this to cancel stale ones.
func (r *BookingRepo) ListAllPending(ctx context.Context) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
	           WHERE status = ? ORDER BY date ASC, time ASC`
	return r.list(ctx, q, model.StatusPending)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Confirm sets status = confirmed and the mirrored confirmed flag, then
// returns the refreshed record. No precondition on the current status
// is checked; confirming an already-cancelled booking succeeds.
func (r *BookingRepo) Confirm(ctx context.Context, id uint64) (*model.Booking, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	const q = `UPDATE bookings SET status = ?, confirmed = TRUE WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, model.StatusConfirmed, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Cancel moves a booking to the terminal cancelled state, recording who
// cancelled and why. Cancelling an already-cancelled booking is a no-op
// that returns the stored record unchanged; changed reports whether a
// write happened so callers can skip event publishing on the no-op path.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64, source, reason string) (b *model.Booking, changed bool, err error) {
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if cur.Status == model.StatusCancelled {
		return cur, false, nil
	}
	const q = `UPDATE bookings SET status = ?, confirmed = FALSE, cancellation_source = ?, cancellation_reason = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, model.StatusCancelled, source, reason, id); err != nil {
		return nil, false, err
	}
	fresh, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return fresh, true, nil
}

// CancelByIDAndDiner is the diner-initiated cancel. The lookup is
// scoped by booking id and diner id together, so a non-owner receives
// ErrBookingNotFound rather than learning the booking exists.
func (r *BookingRepo) CancelByIDAndDiner(ctx context.Context, id, dinerID uint64) (b *model.Booking, changed bool, err error) {
	cur, err := r.GetByIDAndDiner(ctx, id, dinerID)
	if err != nil {
		return nil, false, err
	}
	if cur.Status == model.StatusCancelled {
		return cur, false, nil
	}
	const q = `UPDATE bookings SET status = ?, confirmed = FALSE, cancellation_source = ?, cancellation_reason = ?
	           WHERE id = ? AND diner_id = ?`
	if _, err := r.db.ExecContext(ctx, q, model.StatusCancelled, model.CancelSourceUser, model.ReasonUserCancelled, id, dinerID); err != nil {
		return nil, false, err
	}
	fresh, err := r.GetByIDAndDiner(ctx, id, dinerID)
	if err != nil {
		return nil, false, err
	}
	return fresh, true, nil
}

// UpdateArrival records whether the guest is arriving or has arrived.
// Validation of the value happens in the handler; no precondition on
// booking status is checked here.
func (r *BookingRepo) UpdateArrival(ctx context.Context, id uint64, arrival string) (*model.Booking, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	const q = `UPDATE bookings SET arrival_status = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, arrival, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
