package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/protomem/car-rental/internal/model"
	"github.com/shopspring/decimal"
)

type CarDAO struct {
	Logger *slog.Logger
	*GenericDAO
}

func NewCarDAO(logger *slog.Logger, h Handle) *CarDAO {
	logger = logger.With("dao", "car")
	return &CarDAO{
		Logger:     logger,
		GenericDAO: NewGenericDAO(logger, h),
	}
}

func (dao *CarDAO) List(ctx context.Context) ([]model.Car, error) {
	cars := make([]model.Car, 0)
	if err := dao.GetAll(ctx, &cars, TableCars, ColumnRegistration); err != nil {
		return []model.Car{}, err
	}

	return cars, nil
}

func (dao *CarDAO) Get(ctx context.Context, registration string) (model.Car, error) {
	var car model.Car
	if err := dao.GetOne(ctx, &car, TableCars, ColumnRegistration, registration, ""); err != nil {
		return model.Car{}, err
	}

	return car, nil
}

func (dao *CarDAO) GetForUpdate(ctx context.Context, registration string) (model.Car, error) {
	var car model.Car
	if err := dao.GetOne(ctx, &car, TableCars, ColumnRegistration, registration, "FOR UPDATE"); err != nil {
		return model.Car{}, err
	}

	return car, nil
}

type InsertCarDTO struct {
	Registration string
	Make         string
	Model        string
	Year         int
	Price        decimal.Decimal
}

func (dao *CarDAO) Insert(ctx context.Context, dto InsertCarDTO) error {
	query, args, err := dao.Builder.
		Insert(string(TableCars)).
		Columns("registration", "make", "model", "year", "price").
		Values(dto.Registration, dto.Make, dto.Model, dto.Year, dto.Price).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := dao.exec(ctx, "insert", query, args); err != nil {
		if IsUniqueViolation(err) {
			return model.NewError("car", model.ErrExists)
		}

		return err
	}

	return nil
}

type UpdateCarDTO struct {
	Make  *string
	Model *string
	Year  *int
	Price *decimal.Decimal
}

func (dao *CarDAO) Update(ctx context.Context, registration string, dto UpdateCarDTO) error {
	data := make(map[string]any, 4)
	if dto.Make != nil {
		data["make"] = *dto.Make
	}
	if dto.Model != nil {
		data["model"] = *dto.Model
	}
	if dto.Year != nil {
		data["year"] = *dto.Year
	}
	if dto.Price != nil {
		data["price"] = *dto.Price
	}

	if len(data) == 0 {
		_, err := dao.Get(ctx, registration)
		return err
	}

	query, args, err := dao.Builder.
		Update(string(TableCars)).
		SetMap(data).
		Where(squirrel.Eq{"registration": registration}).
		ToSql()
	if err != nil {
		return err
	}

	return dao.expectOne(ctx, "update", query, args, registration)
}

// CheckOut marks the car as rented by pn since at.
func (dao *CarDAO) CheckOut(ctx context.Context, registration string, pn model.PersonNumber, at time.Time) error {
	query, args, err := dao.Builder.
		Update(string(TableCars)).
		Set("checkedoutby", pn).
		Set("checkedouttime", at).
		Where(squirrel.Eq{"registration": registration}).
		ToSql()
	if err != nil {
		return err
	}

	return dao.expectOne(ctx, "check out", query, args, registration)
}

// CheckIn clears both checkout fields.
func (dao *CarDAO) CheckIn(ctx context.Context, registration string) error {
	query, args, err := dao.Builder.
		Update(string(TableCars)).
		Set("checkedoutby", squirrel.Expr("NULL")).
		Set("checkedouttime", squirrel.Expr("NULL")).
		Where(squirrel.Eq{"registration": registration}).
		ToSql()
	if err != nil {
		return err
	}

	return dao.expectOne(ctx, "check in", query, args, registration)
}

// DetachCustomer drops every checkout reference to pn.
func (dao *CarDAO) DetachCustomer(ctx context.Context, pn model.PersonNumber) error {
	return dao.NullifyColumn(ctx, TableCars, ColumnCheckedOutBy, pn)
}

func (dao *CarDAO) Delete(ctx context.Context, registration string) error {
	if err := dao.GenericDAO.Delete(ctx, TableCars, ColumnRegistration, registration); err != nil {
		if IsForeignKeyViolation(err) {
			return model.NewError("car", model.ErrReferenced)
		}

		return err
	}

	return nil
}

func (dao *CarDAO) expectOne(ctx context.Context, op, query string, args []any, registration string) error {
	affected, err := dao.exec(ctx, op, query, args)
	if err != nil {
		return err
	}

	if affected == 0 {
		return &model.NotFoundError{Table: string(TableCars), Column: string(ColumnRegistration), Value: registration}
	}

	return nil
}
