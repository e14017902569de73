package handler

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/dinebook/restaurant-reservation/internal/model"
	"github.com/dinebook/restaurant-reservation/internal/repository"
)

var bookingCols = []string{
	"id", "reference", "diner_id", "restaurant_id", "name", "phone", "special_request",
	"date", "time", "total_people", "status", "confirmed", "arrival_status",
	"cancellation_source", "cancellation_reason", "created_at", "updated_at",
}

var restaurantCols = []string{
	"id", "user_id", "name", "about_us", "opening_hours", "phone", "address", "city", "state",
	"created_at", "updated_at",
}

func restaurantRow(id, userID uint64, name string) []driver.Value {
	ts := time.Date(2026, time.August, 1, 9, 0, 0, 0, time.Local)
	return []driver.Value{id, userID, name, nil, nil, nil, nil, nil, nil, ts, ts}
}

func bookingRowAt(id uint64, date time.Time, clock, status string, confirmed bool) []driver.Value {
	ts := time.Date(2026, time.August, 1, 9, 0, 0, 0, time.Local)
	return []driver.Value{
		id, "ref", uint64(7), uint64(3), "Ada", "+15550100", nil,
		date, clock, uint32(4), status, confirmed, "", model.CancelSourceNone, nil, ts, ts,
	}
}

func newRestaurantBookingEnv(t *testing.T) (*RestaurantBookingHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := NewRestaurantBookingHandler(repository.NewBookingRepo(db), repository.NewRestaurantRepo(db))
	return h, mock, func() { db.Close() }
}

func newTestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func expectRestaurantByUser(mock sqlmock.Sqlmock, userID, restaurantID uint64, name string) {
	mock.ExpectQuery(`SELECT (.+) FROM restaurants WHERE user_id = \?`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(restaurantCols).AddRow(restaurantRow(restaurantID, userID, name)...))
}

func TestListPendingSweepsExpiredBookings(t *testing.T) {
	h, mock, done := newRestaurantBookingEnv(t)
	defer done()

	yesterday := time.Now().AddDate(0, 0, -1)
	tomorrow := time.Now().AddDate(0, 0, 1)
	yDate := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.Local)
	tDate := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.Local)

	expectRestaurantByUser(mock, 5, 3, "Trattoria")

	rows := sqlmock.NewRows(bookingCols).
		AddRow(bookingRowAt(1, yDate, "19:00", model.StatusPending, false)...).
		AddRow(bookingRowAt(2, tDate, "19:00", model.StatusPending, false)...)
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings\s+WHERE restaurant_id = \? AND status = \?`).
		WithArgs(uint64(3), model.StatusPending).
		WillReturnRows(rows)

	// The stale booking gets its own read-then-write cancel.
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRowAt(1, yDate, "19:00", model.StatusPending, false)...))
	mock.ExpectExec(`UPDATE bookings SET status = \?, confirmed = FALSE, cancellation_source = \?, cancellation_reason = \?`).
		WithArgs(model.StatusCancelled, model.CancelSourceRestaurant, model.ReasonExpired, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRowAt(1, yDate, "19:00", model.StatusCancelled, false)...))

	c, rec := newTestContext(t, http.MethodGet, "/v1/bookings/pending", "")
	c.Set("user_id", uint64(5))

	if err := h.ListPending(c); err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Bookings []bookingResponse `json:"bookings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Bookings) != 1 {
		t.Fatalf("len(bookings) = %d, want 1 (stale one swept out)", len(resp.Bookings))
	}
	if resp.Bookings[0].ID != 2 {
		t.Fatalf("remaining booking id = %d, want 2", resp.Bookings[0].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListPendingKeepsBookingWhenSweepCancelFails(t *testing.T) {
	h, mock, done := newRestaurantBookingEnv(t)
	defer done()

	yesterday := time.Now().AddDate(0, 0, -1)
	yDate := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.Local)

	expectRestaurantByUser(mock, 5, 3, "Trattoria")
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings\s+WHERE restaurant_id = \? AND status = \?`).
		WithArgs(uint64(3), model.StatusPending).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRowAt(1, yDate, "19:00", model.StatusPending, false)...))

	// The cancel's initial read fails, so the booking stays pending in
	// the database and must stay visible in the response.
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnError(errors.New("connection reset"))

	c, rec := newTestContext(t, http.MethodGet, "/v1/bookings/pending", "")
	c.Set("user_id", uint64(5))

	if err := h.ListPending(c); err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Bookings []bookingResponse `json:"bookings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Bookings) != 1 || resp.Bookings[0].ID != 1 {
		t.Fatalf("booking must remain listed when its cancel fails, got %+v", resp.Bookings)
	}
	if resp.Bookings[0].Status != model.StatusPending {
		t.Fatalf("status = %s, want pending", resp.Bookings[0].Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmSetsStatusAndMirror(t *testing.T) {
	h, mock, done := newRestaurantBookingEnv(t)
	defer done()

	date := time.Date(2026, time.September, 12, 0, 0, 0, 0, time.Local)

	expectRestaurantByUser(mock, 5, 3, "Trattoria")
	// Ownership check.
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRowAt(10, date, "19:30", model.StatusPending, false)...))
	// Confirm: read, write, re-read.
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRowAt(10, date, "19:30", model.StatusPending, false)...))
	mock.ExpectExec(`UPDATE bookings SET status = \?, confirmed = TRUE WHERE id = \?`).
		WithArgs(model.StatusConfirmed, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRowAt(10, date, "19:30", model.StatusConfirmed, true)...))

	c, rec := newTestContext(t, http.MethodPut, "/v1/bookings/confirm/10", "")
	c.Set("user_id", uint64(5))
	c.SetParamNames("id")
	c.SetParamValues("10")

	if err := h.Confirm(c); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Booking bookingResponse `json:"booking"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Booking.Status != model.StatusConfirmed || !resp.Booking.Confirmed {
		t.Fatalf("status=%s confirmed=%v, want confirmed/true", resp.Booking.Status, resp.Booking.Confirmed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmOtherRestaurantsBookingIsNotFound(t *testing.T) {
	h, mock, done := newRestaurantBookingEnv(t)
	defer done()

	date := time.Date(2026, time.September, 12, 0, 0, 0, 0, time.Local)

	// The acting user owns restaurant 8; the booking belongs to 3.
	mock.ExpectQuery(`SELECT (.+) FROM restaurants WHERE user_id = \?`).
		WithArgs(uint64(6)).
		WillReturnRows(sqlmock.NewRows(restaurantCols).AddRow(restaurantRow(8, 6, "Bistro")...))
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRowAt(10, date, "19:30", model.StatusPending, false)...))

	c, rec := newTestContext(t, http.MethodPut, "/v1/bookings/confirm/10", "")
	c.Set("user_id", uint64(6))
	c.SetParamNames("id")
	c.SetParamValues("10")

	if err := h.Confirm(c); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRestaurantCancelIsIdempotent(t *testing.T) {
	h, mock, done := newRestaurantBookingEnv(t)
	defer done()

	date := time.Date(2026, time.September, 12, 0, 0, 0, 0, time.Local)
	cancelledRow := func() []driver.Value {
		row := bookingRowAt(10, date, "19:30", model.StatusCancelled, false)
		row[13] = model.CancelSourceUser
		row[14] = model.ReasonUserCancelled
		return row
	}

	expectRestaurantByUser(mock, 5, 3, "Trattoria")
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(cancelledRow()...))
	// Cancel reads, sees terminal state, does not write.
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(cancelledRow()...))

	c, rec := newTestContext(t, http.MethodPut, "/v1/bookings/cancel/10", "")
	c.Set("user_id", uint64(5))
	c.SetParamNames("id")
	c.SetParamValues("10")

	if err := h.Cancel(c); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Booking bookingResponse `json:"booking"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// The original cancellation attribution is preserved.
	if resp.Booking.CancellationSource != model.CancelSourceUser {
		t.Fatalf("cancellation source = %s, want user", resp.Booking.CancellationSource)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateArrivalRejectsUnknownValue(t *testing.T) {
	h, mock, done := newRestaurantBookingEnv(t)
	defer done()

	// Validation fails before any query runs.
	c, rec := newTestContext(t, http.MethodPut, "/v1/bookings/arrival/10", `{"arrivalStatus":"late"}`)
	c.Set("user_id", uint64(5))
	c.SetParamNames("id")
	c.SetParamValues("10")

	if err := h.UpdateArrival(c); err != nil {
		t.Fatalf("UpdateArrival: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no SQL should run on an invalid arrival value: %v", err)
	}
}

func TestUpdateArrivalAcceptsArrived(t *testing.T) {
	h, mock, done := newRestaurantBookingEnv(t)
	defer done()

	date := time.Date(2026, time.September, 12, 0, 0, 0, 0, time.Local)
	arrivedRow := func() []driver.Value {
		row := bookingRowAt(10, date, "19:30", model.StatusConfirmed, true)
		row[12] = model.ArrivalArrived
		return row
	}

	expectRestaurantByUser(mock, 5, 3, "Trattoria")
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRowAt(10, date, "19:30", model.StatusConfirmed, true)...))
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(bookingRowAt(10, date, "19:30", model.StatusConfirmed, true)...))
	mock.ExpectExec(`UPDATE bookings SET arrival_status = \? WHERE id = \?`).
		WithArgs(model.ArrivalArrived, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(arrivedRow()...))

	c, rec := newTestContext(t, http.MethodPut, "/v1/bookings/arrival/10", `{"arrivalStatus":"arrived"}`)
	c.Set("user_id", uint64(5))
	c.SetParamNames("id")
	c.SetParamValues("10")

	if err := h.UpdateArrival(c); err != nil {
		t.Fatalf("UpdateArrival: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Booking bookingResponse `json:"booking"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Booking.ArrivalStatus != model.ArrivalArrived {
		t.Fatalf("arrivalStatus = %s, want arrived", resp.Booking.ArrivalStatus)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
