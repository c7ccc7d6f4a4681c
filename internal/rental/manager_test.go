package rental_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/protomem/car-rental/internal/database"
	"github.com/protomem/car-rental/internal/model"
	"github.com/protomem/car-rental/internal/rental"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	_pn  = "19900101-1234"
	_reg = "ABC123"
)

var (
	_t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	customerColumns = []string{"personnumber", "name", "address", "phone", "renting"}
	carColumns      = []string{"registration", "make", "model", "year", "price", "checkedoutby", "checkedouttime"}
	rentalColumns   = []string{"id", "registration", "personnumber", "checkouttime", "checkintime", "days", "cost"}
)

var (
	selectOpenRental  = regexp.QuoteMeta("SELECT * FROM rentals WHERE registration = $1 AND checkintime IS NULL FOR UPDATE")
	selectCarLocked   = regexp.QuoteMeta("SELECT * FROM cars WHERE registration = $1 FOR UPDATE")
	selectCustLocked  = regexp.QuoteMeta("SELECT * FROM customers WHERE personnumber = $1 FOR UPDATE")
	refreshRenting    = regexp.QuoteMeta("UPDATE customers SET renting = EXISTS (SELECT 1 FROM rentals WHERE personnumber = $1 AND checkintime IS NULL AND id <> $2) WHERE personnumber = $3")
	setRenting        = regexp.QuoteMeta("UPDATE customers SET renting = $1 WHERE personnumber = $2")
	checkOutCar       = regexp.QuoteMeta("UPDATE cars SET checkedoutby = $1, checkedouttime = $2 WHERE registration = $3")
	checkInCar        = regexp.QuoteMeta("UPDATE cars SET checkedoutby = NULL, checkedouttime = NULL WHERE registration = $1")
	closeRentalRow    = regexp.QuoteMeta("UPDATE rentals SET checkintime = $1, cost = $2, days = $3 WHERE id = $4 AND checkintime IS NULL")
	insertRentalRow   = regexp.QuoteMeta("INSERT INTO rentals") + ".*" + regexp.QuoteMeta("RETURNING id")
	detachCustomerRef = regexp.QuoteMeta("UPDATE cars SET checkedoutby = NULL WHERE checkedoutby = $1")
)

type timeArg time.Time

func (a timeArg) Match(v driver.Value) bool {
	t, ok := v.(time.Time)
	return ok && t.Equal(time.Time(a))
}

func newManager(t *testing.T, now time.Time) (*rental.Manager, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := database.Wrap(logger, sqlx.NewDb(conn, "pgx"))

	m := rental.NewManager(logger, db,
		rental.WithClock(func() time.Time { return now }),
		rental.WithLocation(time.UTC),
	)
	return m, mock
}

func openRentalRows(id int, checkout time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(rentalColumns).AddRow(id, _reg, _pn, checkout, nil, nil, nil)
}

func checkedOutCarRows(price string, since time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(carColumns).AddRow(_reg, "Volvo", "V70", 2019, price, _pn, since)
}

func freeCarRows(price string) *sqlmock.Rows {
	return sqlmock.NewRows(carColumns).AddRow(_reg, "Volvo", "V70", 2019, price, nil, nil)
}

func rentingCustomerRows() *sqlmock.Rows {
	return sqlmock.NewRows(customerColumns).AddRow(_pn, "Anna", "Storgatan 1", "070-1234567", true)
}

func expectClose(mock sqlmock.Sqlmock, checkout, checkin time.Time, days int, cost string) {
	mock.ExpectBegin()
	mock.ExpectQuery(selectOpenRental).WithArgs(_reg).WillReturnRows(openRentalRows(7, checkout))
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(checkedOutCarRows("500.00", checkout))
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).WillReturnRows(rentingCustomerRows())
	mock.ExpectExec(refreshRenting).WithArgs(_pn, 7, _pn).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(checkInCar).WithArgs(_reg).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(closeRentalRow).
		WithArgs(timeArg(checkin), cost, days, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestCloseRental(t *testing.T) {
	now := _t0.Add(90000 * time.Second)
	m, mock := newManager(t, now)

	expectClose(mock, _t0, now, 2, "1000")

	id, err := m.CloseRental(context.Background(), _reg)

	require.NoError(t, err)
	assert.Equal(t, model.ID(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseRentalBillingBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		elapsed int64
		days    int
		cost    string
	}{
		{"one minute", 60, 1, "500"},
		{"exactly one day", 86400, 1, "500"},
		{"one day and a second", 86401, 2, "1000"},
		{"exactly two days", 172800, 2, "1000"},
		{"two days and a second", 172801, 3, "1500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := _t0.Add(time.Duration(tt.elapsed) * time.Second)
			m, mock := newManager(t, now)

			expectClose(mock, _t0, now, tt.days, tt.cost)

			_, err := m.CloseRental(context.Background(), _reg)

			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCloseRentalClockBehindCheckout(t *testing.T) {
	m, mock := newManager(t, _t0.Add(-time.Minute))

	expectClose(mock, _t0, _t0, 1, "500")

	_, err := m.CloseRental(context.Background(), _reg)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseRentalTwice(t *testing.T) {
	now := _t0.Add(90000 * time.Second)
	m, mock := newManager(t, now)

	expectClose(mock, _t0, now, 2, "1000")

	mock.ExpectBegin()
	mock.ExpectQuery(selectOpenRental).WithArgs(_reg).WillReturnRows(sqlmock.NewRows(rentalColumns))
	mock.ExpectRollback()

	_, err := m.CloseRental(context.Background(), _reg)
	require.NoError(t, err)

	_, err = m.CloseRental(context.Background(), _reg)
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), _reg)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseRentalFinalWriteFailsRollsBack(t *testing.T) {
	now := _t0.Add(90000 * time.Second)
	m, mock := newManager(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(selectOpenRental).WithArgs(_reg).WillReturnRows(openRentalRows(7, _t0))
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(checkedOutCarRows("500.00", _t0))
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).WillReturnRows(rentingCustomerRows())
	mock.ExpectExec(refreshRenting).WithArgs(_pn, 7, _pn).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(checkInCar).WithArgs(_reg).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(closeRentalRow).
		WithArgs(timeArg(now), "1000", 2, 7).
		WillReturnError(errors.New("new row for relation \"rentals\" violates check constraint"))
	mock.ExpectRollback()

	_, err := m.CloseRental(context.Background(), _reg)

	var dbErr *model.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Contains(t, dbErr.Message, "check constraint")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseRentalLocksCustomerBeforeRecompute(t *testing.T) {
	now := _t0.Add(time.Hour)
	m, mock := newManager(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(selectOpenRental).WithArgs(_reg).WillReturnRows(openRentalRows(7, _t0))
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(checkedOutCarRows("500.00", _t0))
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).WillReturnError(errors.New("canceling statement due to lock timeout"))
	mock.ExpectRollback()

	_, err := m.CloseRental(context.Background(), _reg)

	assert.True(t, model.IsDatabaseError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

// A customer renting two cars stays renting after one of them is returned,
// and can still take a third.
func TestCloseRentalKeepsRentingWithAnotherOpenRental(t *testing.T) {
	closeAt := _t0.Add(2 * time.Hour)
	m, mock := newManager(t, closeAt)

	mock.ExpectBegin()
	mock.ExpectQuery(selectOpenRental).WithArgs(_reg).WillReturnRows(openRentalRows(7, _t0))
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(checkedOutCarRows("500.00", _t0))
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).WillReturnRows(rentingCustomerRows())
	// Rental 8 on another car is still open; only rental 7 is excluded.
	mock.ExpectExec(refreshRenting).WithArgs(_pn, 7, _pn).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(checkInCar).WithArgs(_reg).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(closeRentalRow).
		WithArgs(timeArg(closeAt), "500", 1, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(freeCarRows("500.00"))
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).WillReturnRows(rentingCustomerRows())
	mock.ExpectExec(setRenting).WithArgs(true, _pn).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(checkOutCar).WithArgs(_pn, timeArg(closeAt), _reg).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertRentalRow).
		WithArgs(_reg, _pn, timeArg(closeAt), nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectCommit()

	closed, err := m.CloseRental(context.Background(), _reg)
	require.NoError(t, err)
	assert.Equal(t, model.ID(7), closed)

	opened, err := m.CreateRental(context.Background(), _pn, _reg)
	require.NoError(t, err)
	assert.Equal(t, model.ID(9), opened)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRental(t *testing.T) {
	m, mock := newManager(t, _t0)

	mock.ExpectBegin()
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(freeCarRows("500.00"))
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).
		WillReturnRows(sqlmock.NewRows(customerColumns).AddRow(_pn, "Anna", "Storgatan 1", "070-1234567", false))
	mock.ExpectExec(setRenting).WithArgs(true, _pn).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(checkOutCar).WithArgs(_pn, timeArg(_t0), _reg).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertRentalRow).
		WithArgs(_reg, _pn, timeArg(_t0), nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	id, err := m.CreateRental(context.Background(), _pn, _reg)

	require.NoError(t, err)
	assert.Equal(t, model.ID(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRentalCarAlreadyCheckedOut(t *testing.T) {
	m, mock := newManager(t, _t0)

	mock.ExpectBegin()
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(checkedOutCarRows("500.00", _t0.Add(-time.Hour)))
	mock.ExpectRollback()

	_, err := m.CreateRental(context.Background(), _pn, _reg)

	assert.ErrorIs(t, err, model.ErrCheckedOut)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRentalUnknownCustomer(t *testing.T) {
	m, mock := newManager(t, _t0)

	mock.ExpectBegin()
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(freeCarRows("500.00"))
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).WillReturnRows(sqlmock.NewRows(customerColumns))
	mock.ExpectRollback()

	_, err := m.CreateRental(context.Background(), _pn, _reg)

	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), _pn)
	assert.Contains(t, err.Error(), "personnumber")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRentalInsertFailsRollsBack(t *testing.T) {
	m, mock := newManager(t, _t0)

	mock.ExpectBegin()
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(freeCarRows("500.00"))
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).
		WillReturnRows(sqlmock.NewRows(customerColumns).AddRow(_pn, "Anna", "", "", false))
	mock.ExpectExec(setRenting).WithArgs(true, _pn).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(checkOutCar).WithArgs(_pn, timeArg(_t0), _reg).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertRentalRow).WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	_, err := m.CreateRental(context.Background(), _pn, _reg)

	assert.True(t, model.IsDatabaseError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRentalUsesOneTimestamp(t *testing.T) {
	calls := 0
	clock := func() time.Time {
		calls++
		return _t0.Add(time.Duration(calls) * time.Second)
	}

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := rental.NewManager(logger, database.Wrap(logger, sqlx.NewDb(conn, "pgx")), rental.WithClock(clock))

	first := _t0.Add(time.Second)

	mock.ExpectBegin()
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(freeCarRows("500.00"))
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).
		WillReturnRows(sqlmock.NewRows(customerColumns).AddRow(_pn, "Anna", "", "", false))
	mock.ExpectExec(setRenting).WithArgs(true, _pn).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(checkOutCar).WithArgs(_pn, timeArg(first), _reg).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertRentalRow).
		WithArgs(_reg, _pn, timeArg(first), nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	_, err = m.CreateRental(context.Background(), _pn, _reg)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

type zoneArg string

func (a zoneArg) Match(v driver.Value) bool {
	t, ok := v.(time.Time)
	return ok && t.Location().String() == string(a)
}

func TestNewManagerDefaultsToStockholm(t *testing.T) {
	if _, err := time.LoadLocation(rental.DefaultLocation); err != nil {
		t.Skip("zone database not available")
	}

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := rental.NewManager(logger, database.Wrap(logger, sqlx.NewDb(conn, "pgx")),
		rental.WithClock(func() time.Time { return _t0 }))

	mock.ExpectBegin()
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(freeCarRows("500.00"))
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).
		WillReturnRows(sqlmock.NewRows(customerColumns).AddRow(_pn, "Anna", "", "", false))
	mock.ExpectExec(setRenting).WithArgs(true, _pn).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(checkOutCar).WithArgs(_pn, zoneArg(rental.DefaultLocation), _reg).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertRentalRow).
		WithArgs(_reg, _pn, zoneArg(rental.DefaultLocation), nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	_, err = m.CreateRental(context.Background(), _pn, _reg)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveCustomerWhileRenting(t *testing.T) {
	m, mock := newManager(t, _t0)

	mock.ExpectBegin()
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).
		WillReturnRows(sqlmock.NewRows(customerColumns).AddRow(_pn, "Anna", "", "", true))
	mock.ExpectRollback()

	err := m.RemoveCustomer(context.Background(), _pn)

	assert.ErrorIs(t, err, model.ErrRenting)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveCustomer(t *testing.T) {
	m, mock := newManager(t, _t0)

	mock.ExpectBegin()
	mock.ExpectQuery(selectCustLocked).WithArgs(_pn).
		WillReturnRows(sqlmock.NewRows(customerColumns).AddRow(_pn, "Anna", "", "", false))
	mock.ExpectExec(detachCustomerRef).WithArgs(_pn).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE personnumber = $1")).
		WithArgs(_pn).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, m.RemoveCustomer(context.Background(), _pn))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveCarCheckedOut(t *testing.T) {
	m, mock := newManager(t, _t0)

	mock.ExpectBegin()
	mock.ExpectQuery(selectCarLocked).WithArgs(_reg).WillReturnRows(checkedOutCarRows("500.00", _t0))
	mock.ExpectRollback()

	err := m.RemoveCar(context.Background(), _reg)

	assert.ErrorIs(t, err, model.ErrCheckedOut)
	require.NoError(t, mock.ExpectationsWereMet())
}
