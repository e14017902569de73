package handler

import (
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dinebook/restaurant-reservation/internal/repository"
)

var tableCols = []string{
	"id", "restaurant_id", "floor", "table_number", "capacity", "available", "created_at", "updated_at",
}

func tableRow(id uint64, available bool) []driver.Value {
	ts := time.Date(2026, time.August, 1, 9, 0, 0, 0, time.Local)
	return []driver.Value{id, uint64(3), "ground", uint32(4), uint32(6), available, ts, ts}
}

func newTableEnv(t *testing.T) (*TableHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := NewTableHandler(repository.NewTableRepo(db), repository.NewRestaurantRepo(db))
	return h, mock, func() { db.Close() }
}

func TestToggleFlipsAvailability(t *testing.T) {
	h, mock, done := newTableEnv(t)
	defer done()

	expectRestaurantByUser(mock, 5, 3, "Trattoria")
	mock.ExpectQuery(`SELECT (.+) FROM tables WHERE id = \? AND restaurant_id = \?`).
		WithArgs(uint64(9), uint64(3)).
		WillReturnRows(sqlmock.NewRows(tableCols).AddRow(tableRow(9, true)...))
	mock.ExpectExec(`UPDATE tables SET available = \? WHERE id = \? AND restaurant_id = \?`).
		WithArgs(false, uint64(9), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM tables WHERE id = \? AND restaurant_id = \?`).
		WithArgs(uint64(9), uint64(3)).
		WillReturnRows(sqlmock.NewRows(tableCols).AddRow(tableRow(9, false)...))

	c, rec := newTestContext(t, http.MethodPut, "/v1/tables/toggle/9", "")
	c.Set("user_id", uint64(5))
	c.SetParamNames("id")
	c.SetParamValues("9")

	if err := h.Toggle(c); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Table tableResponse `json:"table"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Table.Available {
		t.Fatal("availability should flip from true to false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestToggleUnknownTable(t *testing.T) {
	h, mock, done := newTableEnv(t)
	defer done()

	expectRestaurantByUser(mock, 5, 3, "Trattoria")
	mock.ExpectQuery(`SELECT (.+) FROM tables WHERE id = \? AND restaurant_id = \?`).
		WithArgs(uint64(77), uint64(3)).
		WillReturnRows(sqlmock.NewRows(tableCols))

	c, rec := newTestContext(t, http.MethodPut, "/v1/tables/toggle/77", "")
	c.Set("user_id", uint64(5))
	c.SetParamNames("id")
	c.SetParamValues("77")

	if err := h.Toggle(c); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCreateTableConflict(t *testing.T) {
	h, mock, done := newTableEnv(t)
	defer done()

	expectRestaurantByUser(mock, 5, 3, "Trattoria")
	mock.ExpectExec(`INSERT INTO tables`).
		WithArgs(uint64(3), "ground", uint32(4), uint32(6), true).
		WillReturnError(errDuplicate{})

	body := `{"floor":"ground","tableNumber":4,"capacity":6}`
	c, rec := newTestContext(t, http.MethodPost, "/v1/tables", body)
	c.Set("user_id", uint64(5))

	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

// errDuplicate mimics the MySQL duplicate-key error text the repository
// matches on.
type errDuplicate struct{}

func (errDuplicate) Error() string {
	return "Error 1062 (23000): Duplicate entry '3-ground-4' for key 'uq_tables_position'"
}
