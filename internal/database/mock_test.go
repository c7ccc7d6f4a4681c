package database

import (
	"database/sql/driver"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Wrap(logger, sqlx.NewDb(conn, "pgx")), mock
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type timeArg time.Time

func (a timeArg) Match(v driver.Value) bool {
	t, ok := v.(time.Time)
	return ok && t.Equal(time.Time(a))
}

var (
	customerColumns = []string{"personnumber", "name", "address", "phone", "renting"}
	carColumns      = []string{"registration", "make", "model", "year", "price", "checkedoutby", "checkedouttime"}
	rentalColumns   = []string{"id", "registration", "personnumber", "checkouttime", "checkintime", "days", "cost"}
)
