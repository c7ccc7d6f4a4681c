package database

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

// Table and Column name SQL identifiers. They are concatenated into
// statements, so only the constants below are accepted.
type (
	Table  string
	Column string
)

const (
	TableCustomers Table = "customers"
	TableCars      Table = "cars"
	TableRentals   Table = "rentals"
)

const (
	ColumnPersonNumber Column = "personnumber"
	ColumnName         Column = "name"
	ColumnAddress      Column = "address"
	ColumnPhone        Column = "phone"
	ColumnRenting      Column = "renting"

	ColumnRegistration   Column = "registration"
	ColumnMake           Column = "make"
	ColumnModel          Column = "model"
	ColumnYear           Column = "year"
	ColumnPrice          Column = "price"
	ColumnCheckedOutBy   Column = "checkedoutby"
	ColumnCheckedOutTime Column = "checkedouttime"

	ColumnID           Column = "id"
	ColumnCheckoutTime Column = "checkouttime"
	ColumnCheckinTime  Column = "checkintime"
	ColumnDays         Column = "days"
	ColumnCost         Column = "cost"
)

var ErrUnknownIdentifier = errors.New("unknown identifier")

var _schema = map[Table][]Column{
	TableCustomers: {
		ColumnPersonNumber, ColumnName, ColumnAddress, ColumnPhone, ColumnRenting,
	},
	TableCars: {
		ColumnRegistration, ColumnMake, ColumnModel, ColumnYear, ColumnPrice,
		ColumnCheckedOutBy, ColumnCheckedOutTime,
	},
	TableRentals: {
		ColumnID, ColumnRegistration, ColumnPersonNumber,
		ColumnCheckoutTime, ColumnCheckinTime, ColumnDays, ColumnCost,
	},
}

func (t Table) Columns() []Column {
	return slices.Clone(_schema[t])
}

func (t Table) Has(c Column) bool {
	cols, ok := _schema[t]
	return ok && slices.Contains(cols, c)
}

func checkIdent(t Table, cols ...Column) error {
	if _, ok := _schema[t]; !ok {
		return fmt.Errorf("table %q: %w", t, ErrUnknownIdentifier)
	}

	for _, c := range cols {
		if !t.Has(c) {
			return fmt.Errorf("column %q of %s: %w", c, t, ErrUnknownIdentifier)
		}
	}

	return nil
}
