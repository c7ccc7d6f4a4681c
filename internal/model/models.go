package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ID = uint

// PersonNumber identifies a customer, e.g. "19900101-1234".
type PersonNumber string

func (pn PersonNumber) String() string {
	return string(pn)
}

type Customer struct {
	PersonNumber PersonNumber `json:"personNumber" db:"personnumber"`
	Name         string       `json:"name" db:"name"`
	Address      string       `json:"address" db:"address"`
	Phone        string       `json:"phone" db:"phone"`
	Renting      bool         `json:"renting" db:"renting"`
}

type Car struct {
	Registration string          `json:"registration" db:"registration"`
	Make         string          `json:"make" db:"make"`
	Model        string          `json:"model" db:"model"`
	Year         int             `json:"year" db:"year"`
	Price        decimal.Decimal `json:"price" db:"price"`

	CheckedOutBy   *PersonNumber `json:"checkedOutBy" db:"checkedoutby"`
	CheckedOutTime *time.Time    `json:"checkedOutTime" db:"checkedouttime"`
}

func (c Car) IsCheckedOut() bool {
	return c.CheckedOutBy != nil
}

type Rental struct {
	ID           ID           `json:"id" db:"id"`
	Registration string       `json:"registration" db:"registration"`
	PersonNumber PersonNumber `json:"personNumber" db:"personnumber"`

	CheckoutTime time.Time  `json:"checkoutTime" db:"checkouttime"`
	CheckinTime  *time.Time `json:"checkinTime" db:"checkintime"`

	Days *int                `json:"days" db:"days"`
	Cost decimal.NullDecimal `json:"cost" db:"cost"`
}

// IsOpen reports whether the car of this rental is still checked out.
func (r Rental) IsOpen() bool {
	return r.CheckinTime == nil
}
