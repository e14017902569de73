package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dinebook/restaurant-reservation/internal/model"
)

var bookingTestCols = []string{
	"id", "reference", "diner_id", "restaurant_id", "name", "phone", "special_request",
	"date", "time", "total_people", "status", "confirmed", "arrival_status",
	"cancellation_source", "cancellation_reason", "created_at", "updated_at",
}

func bookingRow(id uint64, status string, confirmed bool, source string, reason interface{}) []driver.Value {
	ts := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.Local)
	return []driver.Value{
		id, "ref-" + status, uint64(7), uint64(3), "Ada", "+15550100", nil,
		time.Date(2026, time.September, 12, 0, 0, 0, 0, time.Local), "19:30", uint32(4),
		status, confirmed, "", source, reason, ts, ts,
	}
}

func addRow(rows *sqlmock.Rows, vals []driver.Value) *sqlmock.Rows {
	return rows.AddRow(vals...)
}

func newBookingMock(t *testing.T) (*BookingRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewBookingRepo(db), mock, func() { db.Close() }
}

func TestCancelTransitionsPendingBooking(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(addRow(sqlmock.NewRows(bookingTestCols), bookingRow(10, model.StatusPending, false, model.CancelSourceNone, nil)))
	mock.ExpectExec(`UPDATE bookings SET status = \?, confirmed = FALSE, cancellation_source = \?, cancellation_reason = \? WHERE id = \?`).
		WithArgs(model.StatusCancelled, model.CancelSourceRestaurant, model.ReasonExpired, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(addRow(sqlmock.NewRows(bookingTestCols), bookingRow(10, model.StatusCancelled, false, model.CancelSourceRestaurant, model.ReasonExpired)))

	b, changed, err := repo.Cancel(context.Background(), 10, model.CancelSourceRestaurant, model.ReasonExpired)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !changed {
		t.Fatal("expected changed = true for a pending booking")
	}
	if b.Status != model.StatusCancelled || b.Confirmed {
		t.Fatalf("got status=%s confirmed=%v, want cancelled/false", b.Status, b.Confirmed)
	}
	if b.CancellationSource != model.CancelSourceRestaurant {
		t.Fatalf("cancellation source = %s", b.CancellationSource)
	}
	if b.CancellationReason == nil || *b.CancellationReason != model.ReasonExpired {
		t.Fatalf("cancellation reason = %v", b.CancellationReason)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	// Already cancelled: the read short-circuits and no UPDATE runs.
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(11)).
		WillReturnRows(addRow(sqlmock.NewRows(bookingTestCols), bookingRow(11, model.StatusCancelled, false, model.CancelSourceUser, model.ReasonUserCancelled)))

	b, changed, err := repo.Cancel(context.Background(), 11, model.CancelSourceRestaurant, model.ReasonRestaurantCancelled)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if changed {
		t.Fatal("cancelling an already-cancelled booking must be a no-op")
	}
	// The stored source and reason survive the repeat cancel.
	if b.CancellationSource != model.CancelSourceUser {
		t.Fatalf("cancellation source overwritten: %s", b.CancellationSource)
	}
	if b.CancellationReason == nil || *b.CancellationReason != model.ReasonUserCancelled {
		t.Fatalf("cancellation reason overwritten: %v", b.CancellationReason)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCancelByIDAndDinerScopesOwnership(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	// A diner asking for someone else's booking gets not-found.
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \? AND diner_id = \?`).
		WithArgs(uint64(12), uint64(99)).
		WillReturnRows(sqlmock.NewRows(bookingTestCols))

	_, _, err := repo.CancelByIDAndDiner(context.Background(), 12, 99)
	if !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmMirrorsConfirmedFlag(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(13)).
		WillReturnRows(addRow(sqlmock.NewRows(bookingTestCols), bookingRow(13, model.StatusPending, false, model.CancelSourceNone, nil)))
	mock.ExpectExec(`UPDATE bookings SET status = \?, confirmed = TRUE WHERE id = \?`).
		WithArgs(model.StatusConfirmed, uint64(13)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(13)).
		WillReturnRows(addRow(sqlmock.NewRows(bookingTestCols), bookingRow(13, model.StatusConfirmed, true, model.CancelSourceNone, nil)))

	b, err := repo.Confirm(context.Background(), 13)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if b.Status != model.StatusConfirmed || !b.Confirmed {
		t.Fatalf("got status=%s confirmed=%v, want confirmed/true", b.Status, b.Confirmed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmUnknownBooking(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows(bookingTestCols))

	if _, err := repo.Confirm(context.Background(), 404); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestListByRestaurantAndStatus(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	rows := sqlmock.NewRows(bookingTestCols)
	rows = addRow(rows, bookingRow(1, model.StatusPending, false, model.CancelSourceNone, nil))
	rows = addRow(rows, bookingRow(2, model.StatusPending, false, model.CancelSourceNone, nil))
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings\s+WHERE restaurant_id = \? AND status = \? ORDER BY date ASC, time ASC`).
		WithArgs(uint64(3), model.StatusPending).
		WillReturnRows(rows)

	list, err := repo.ListByRestaurantAndStatus(context.Background(), 3, model.StatusPending)
	if err != nil {
		t.Fatalf("ListByRestaurantAndStatus: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
