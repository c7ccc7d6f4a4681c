package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/protomem/car-rental/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerInsertDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewCustomerDAO(discardLogger(), db.Handle())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customers")).
		WithArgs("19900101-1234", "Anna", "Storgatan 1", "070-1234567", false).
		WillReturnError(&pgconn.PgError{
			Code:    pgerrcode.UniqueViolation,
			Message: "duplicate key value violates unique constraint \"customers_pkey\"",
		})

	err := dao.Insert(context.Background(), InsertCustomerDTO{
		PersonNumber: "19900101-1234",
		Name:         "Anna",
		Address:      "Storgatan 1",
		Phone:        "070-1234567",
	})

	assert.ErrorIs(t, err, model.ErrExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerSetRentingNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewCustomerDAO(discardLogger(), db.Handle())

	mock.ExpectExec(regexp.QuoteMeta("UPDATE customers SET renting = $1 WHERE personnumber = $2")).
		WithArgs(true, "19900101-1234").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := dao.SetRenting(context.Background(), "19900101-1234", true)

	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "19900101-1234")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRefreshRenting(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewCustomerDAO(discardLogger(), db.Handle())

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE customers SET renting = EXISTS (SELECT 1 FROM rentals WHERE personnumber = $1 AND checkintime IS NULL AND id <> $2) WHERE personnumber = $3",
	)).
		WithArgs("19900101-1234", 7, "19900101-1234").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, dao.RefreshRenting(context.Background(), "19900101-1234", 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerUpdateWithoutFieldsChecksExistence(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewCustomerDAO(discardLogger(), db.Handle())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM customers WHERE personnumber = $1")).
		WithArgs("19900101-1234").
		WillReturnRows(sqlmock.NewRows(customerColumns))

	err := dao.Update(context.Background(), "19900101-1234", UpdateCustomerDTO{})

	assert.ErrorIs(t, err, model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewCustomerDAO(discardLogger(), db.Handle())

	name, phone := "Anna Svensson", "070-7654321"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE customers SET name = $1, phone = $2 WHERE personnumber = $3")).
		WithArgs(name, phone, "19900101-1234").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := dao.Update(context.Background(), "19900101-1234", UpdateCustomerDTO{Name: &name, Phone: &phone})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerDeleteReferenced(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewCustomerDAO(discardLogger(), db.Handle())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE personnumber = $1")).
		WithArgs("19900101-1234").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, Message: "violates foreign key constraint"})

	err := dao.Delete(context.Background(), "19900101-1234")

	assert.ErrorIs(t, err, model.ErrReferenced)
	require.NoError(t, mock.ExpectationsWereMet())
}
