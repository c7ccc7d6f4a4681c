package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/protomem/car-rental/internal/model"
	"github.com/shopspring/decimal"
)

type RentalDAO struct {
	Logger *slog.Logger
	*GenericDAO
}

func NewRentalDAO(logger *slog.Logger, h Handle) *RentalDAO {
	logger = logger.With("dao", "rental")
	return &RentalDAO{
		Logger:     logger,
		GenericDAO: NewGenericDAO(logger, h),
	}
}

// List returns every rental ordered by the given column.
func (dao *RentalDAO) List(ctx context.Context, orderBy Column) ([]model.Rental, error) {
	rentals := make([]model.Rental, 0)
	if err := dao.GetAll(ctx, &rentals, TableRentals, orderBy); err != nil {
		return []model.Rental{}, err
	}

	return rentals, nil
}

func (dao *RentalDAO) ListByCustomer(ctx context.Context, pn model.PersonNumber) ([]model.Rental, error) {
	query, args, err := dao.Builder.
		Select("*").
		From(string(TableRentals)).
		Where(squirrel.Eq{"personnumber": pn}).
		ToSql()
	if err != nil {
		return []model.Rental{}, err
	}

	rentals := make([]model.Rental, 0)
	if err := dao.ExecuteQuery(ctx, &rentals, query, args, " ORDER BY checkouttime DESC, id DESC"); err != nil {
		return []model.Rental{}, err
	}

	return rentals, nil
}

func (dao *RentalDAO) Get(ctx context.Context, id model.ID) (model.Rental, error) {
	var rental model.Rental
	if err := dao.GetOne(ctx, &rental, TableRentals, ColumnID, id, ""); err != nil {
		return model.Rental{}, err
	}

	return rental, nil
}

// FindOpenForUpdate returns the rental whose car is still checked out and
// locks it. A concurrent closer blocks here and then sees no open rental.
func (dao *RentalDAO) FindOpenForUpdate(ctx context.Context, registration string) (model.Rental, error) {
	var rental model.Rental
	err := dao.GetOne(ctx, &rental, TableRentals, ColumnRegistration, registration, "AND checkintime IS NULL FOR UPDATE")
	if err != nil {
		return model.Rental{}, err
	}

	return rental, nil
}

type InsertRentalDTO struct {
	Registration string
	PersonNumber model.PersonNumber
	CheckoutTime time.Time
}

func (dao *RentalDAO) Insert(ctx context.Context, dto InsertRentalDTO) (model.ID, error) {
	query, args, err := dao.Builder.
		Insert(string(TableRentals)).
		Columns("registration", "personnumber", "checkouttime", "checkintime", "days", "cost").
		Values(dto.Registration, dto.PersonNumber, dto.CheckoutTime, nil, nil, nil).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}

	id, err := dao.InsertOrUpdate(ctx, query, args)
	if err != nil {
		if IsUniqueViolation(err) {
			return 0, model.NewError("rental", model.ErrExists)
		}

		return 0, err
	}

	return id, nil
}

type CloseRentalDTO struct {
	CheckinTime time.Time
	Days        int
	Cost        decimal.Decimal
}

// Close finalizes an open rental. Checkin time, days and cost are written by
// one statement so none of them is ever set alone.
func (dao *RentalDAO) Close(ctx context.Context, id model.ID, dto CloseRentalDTO) error {
	query, args, err := dao.Builder.
		Update(string(TableRentals)).
		SetMap(map[string]any{
			"checkintime": dto.CheckinTime,
			"days":        dto.Days,
			"cost":        dto.Cost,
		}).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"checkintime": nil}).
		ToSql()
	if err != nil {
		return err
	}

	affected, err := dao.exec(ctx, "close", query, args)
	if err != nil {
		return err
	}

	if affected == 0 {
		return &model.NotFoundError{Table: string(TableRentals), Column: string(ColumnID), Value: id}
	}

	return nil
}
