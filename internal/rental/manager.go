package rental

import (
	"context"
	"log/slog"
	"time"

	"github.com/protomem/car-rental/internal/database"
	"github.com/protomem/car-rental/internal/model"
)

// DefaultLocation is the zone rental timestamps are normalized to unless
// WithLocation says otherwise. UTC is used when the zone database is missing.
const DefaultLocation = "Europe/Stockholm"

// Manager opens and closes rentals. Each operation is one transaction over
// the customers, cars and rentals tables.
type Manager struct {
	logger *slog.Logger
	db     *database.DB
	clock  func() time.Time
	loc    *time.Location
}

type Option func(*Manager)

func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

func WithLocation(loc *time.Location) Option {
	return func(m *Manager) {
		m.loc = loc
	}
}

func NewManager(logger *slog.Logger, db *database.DB, opts ...Option) *Manager {
	m := &Manager{
		logger: logger.With("module", "rental"),
		db:     db,
		clock:  time.Now,
		loc:    defaultLocation(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultLocation)
	if err != nil {
		return time.UTC
	}

	return loc
}

// now is read once per transaction; the store keeps microseconds.
func (m *Manager) now() time.Time {
	return m.clock().In(m.loc).Truncate(time.Microsecond)
}

// CreateRental checks the car out to the customer and records a new open
// rental, returning its id.
func (m *Manager) CreateRental(ctx context.Context, pn model.PersonNumber, registration string) (model.ID, error) {
	logger := m.logger.With("op", "createRental", "personNumber", pn, "registration", registration)

	now := m.now()

	var id model.ID
	err := m.db.InTx(ctx, func(h database.Handle) error {
		cars := database.NewCarDAO(logger, h)
		customers := database.NewCustomerDAO(logger, h)
		rentals := database.NewRentalDAO(logger, h)

		car, err := cars.GetForUpdate(ctx, registration)
		if err != nil {
			return err
		}
		if car.IsCheckedOut() {
			return model.NewError("car", model.ErrCheckedOut)
		}

		if _, err := customers.GetForUpdate(ctx, pn); err != nil {
			return err
		}

		if err := customers.SetRenting(ctx, pn, true); err != nil {
			return err
		}

		if err := cars.CheckOut(ctx, registration, pn, now); err != nil {
			return err
		}

		id, err = rentals.Insert(ctx, database.InsertRentalDTO{
			Registration: registration,
			PersonNumber: pn,
			CheckoutTime: now,
		})
		return err
	})
	if err != nil {
		logger.Warn("failed to create rental", "error", err)

		return 0, err
	}

	logger.Info("rental created", "rentalId", id, "checkoutTime", now)

	return id, nil
}

// CloseRental checks the car back in, bills the open rental and returns its
// id. A car without an open rental yields model.ErrNotFound and changes
// nothing.
func (m *Manager) CloseRental(ctx context.Context, registration string) (model.ID, error) {
	logger := m.logger.With("op", "closeRental", "registration", registration)

	now := m.now()

	var (
		id   model.ID
		bill database.CloseRentalDTO
	)
	err := m.db.InTx(ctx, func(h database.Handle) error {
		cars := database.NewCarDAO(logger, h)
		customers := database.NewCustomerDAO(logger, h)
		rentals := database.NewRentalDAO(logger, h)

		rental, err := rentals.FindOpenForUpdate(ctx, registration)
		if err != nil {
			return err
		}

		car, err := cars.GetForUpdate(ctx, rental.Registration)
		if err != nil {
			return err
		}

		if _, err := customers.GetForUpdate(ctx, rental.PersonNumber); err != nil {
			return err
		}

		if err := customers.RefreshRenting(ctx, rental.PersonNumber, rental.ID); err != nil {
			return err
		}

		if err := cars.CheckIn(ctx, rental.Registration); err != nil {
			return err
		}

		checkin := now
		if checkin.Before(rental.CheckoutTime) {
			checkin = rental.CheckoutTime
		}

		days := BillingDays(ElapsedSeconds(rental.CheckoutTime, checkin))
		bill = database.CloseRentalDTO{
			CheckinTime: checkin,
			Days:        days,
			Cost:        Cost(days, car.Price),
		}

		if err := rentals.Close(ctx, rental.ID, bill); err != nil {
			return err
		}

		id = rental.ID
		return nil
	})
	if err != nil {
		logger.Warn("failed to close rental", "error", err)

		return 0, err
	}

	logger.Info("rental closed", "rentalId", id, "days", bill.Days, "cost", bill.Cost.String())

	return id, nil
}

// RemoveCustomer deletes a customer who has no open rental.
func (m *Manager) RemoveCustomer(ctx context.Context, pn model.PersonNumber) error {
	logger := m.logger.With("op", "removeCustomer", "personNumber", pn)

	err := m.db.InTx(ctx, func(h database.Handle) error {
		customers := database.NewCustomerDAO(logger, h)
		cars := database.NewCarDAO(logger, h)

		customer, err := customers.GetForUpdate(ctx, pn)
		if err != nil {
			return err
		}
		if customer.Renting {
			return model.NewError("customer", model.ErrRenting)
		}

		if err := cars.DetachCustomer(ctx, pn); err != nil {
			return err
		}

		return customers.Delete(ctx, pn)
	})
	if err != nil {
		logger.Warn("failed to remove customer", "error", err)

		return err
	}

	logger.Info("customer removed")

	return nil
}

// RemoveCar deletes a car that is not checked out.
func (m *Manager) RemoveCar(ctx context.Context, registration string) error {
	logger := m.logger.With("op", "removeCar", "registration", registration)

	err := m.db.InTx(ctx, func(h database.Handle) error {
		cars := database.NewCarDAO(logger, h)

		car, err := cars.GetForUpdate(ctx, registration)
		if err != nil {
			return err
		}
		if car.IsCheckedOut() {
			return model.NewError("car", model.ErrCheckedOut)
		}

		return cars.Delete(ctx, registration)
	})
	if err != nil {
		logger.Warn("failed to remove car", "error", err)

		return err
	}

	logger.Info("car removed")

	return nil
}
