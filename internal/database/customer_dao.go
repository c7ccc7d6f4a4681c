package database

import (
	"context"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/protomem/car-rental/internal/model"
)

type CustomerDAO struct {
	Logger *slog.Logger
	*GenericDAO
}

func NewCustomerDAO(logger *slog.Logger, h Handle) *CustomerDAO {
	logger = logger.With("dao", "customer")
	return &CustomerDAO{
		Logger:     logger,
		GenericDAO: NewGenericDAO(logger, h),
	}
}

func (dao *CustomerDAO) List(ctx context.Context) ([]model.Customer, error) {
	customers := make([]model.Customer, 0)
	if err := dao.GetAll(ctx, &customers, TableCustomers, ColumnPersonNumber); err != nil {
		return []model.Customer{}, err
	}

	return customers, nil
}

func (dao *CustomerDAO) Get(ctx context.Context, pn model.PersonNumber) (model.Customer, error) {
	var customer model.Customer
	if err := dao.GetOne(ctx, &customer, TableCustomers, ColumnPersonNumber, pn, ""); err != nil {
		return model.Customer{}, err
	}

	return customer, nil
}

// GetForUpdate reads the customer and locks its row until the enclosing
// transaction ends.
func (dao *CustomerDAO) GetForUpdate(ctx context.Context, pn model.PersonNumber) (model.Customer, error) {
	var customer model.Customer
	if err := dao.GetOne(ctx, &customer, TableCustomers, ColumnPersonNumber, pn, "FOR UPDATE"); err != nil {
		return model.Customer{}, err
	}

	return customer, nil
}

type InsertCustomerDTO struct {
	PersonNumber model.PersonNumber
	Name         string
	Address      string
	Phone        string
}

func (dao *CustomerDAO) Insert(ctx context.Context, dto InsertCustomerDTO) error {
	query, args, err := dao.Builder.
		Insert(string(TableCustomers)).
		Columns("personnumber", "name", "address", "phone", "renting").
		Values(dto.PersonNumber, dto.Name, dto.Address, dto.Phone, false).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := dao.exec(ctx, "insert", query, args); err != nil {
		if IsUniqueViolation(err) {
			return model.NewError("customer", model.ErrExists)
		}

		return err
	}

	return nil
}

type UpdateCustomerDTO struct {
	Name    *string
	Address *string
	Phone   *string
}

func (dao *CustomerDAO) Update(ctx context.Context, pn model.PersonNumber, dto UpdateCustomerDTO) error {
	data := make(map[string]any, 3)
	if dto.Name != nil {
		data["name"] = *dto.Name
	}
	if dto.Address != nil {
		data["address"] = *dto.Address
	}
	if dto.Phone != nil {
		data["phone"] = *dto.Phone
	}

	if len(data) == 0 {
		_, err := dao.Get(ctx, pn)
		return err
	}

	query, args, err := dao.Builder.
		Update(string(TableCustomers)).
		SetMap(data).
		Where(squirrel.Eq{"personnumber": pn}).
		ToSql()
	if err != nil {
		return err
	}

	return dao.expectOne(ctx, "update", query, args, pn)
}

// SetRenting overwrites the renting flag.
func (dao *CustomerDAO) SetRenting(ctx context.Context, pn model.PersonNumber, renting bool) error {
	query, args, err := dao.Builder.
		Update(string(TableCustomers)).
		Set("renting", renting).
		Where(squirrel.Eq{"personnumber": pn}).
		ToSql()
	if err != nil {
		return err
	}

	return dao.expectOne(ctx, "set renting", query, args, pn)
}

// RefreshRenting recomputes the renting flag from the open rentals of the
// customer, ignoring the rental being closed.
func (dao *CustomerDAO) RefreshRenting(ctx context.Context, pn model.PersonNumber, closing model.ID) error {
	query, args, err := dao.Builder.
		Update(string(TableCustomers)).
		Set("renting", squirrel.Expr(
			"EXISTS (SELECT 1 FROM rentals WHERE personnumber = ? AND checkintime IS NULL AND id <> ?)",
			pn, closing,
		)).
		Where(squirrel.Eq{"personnumber": pn}).
		ToSql()
	if err != nil {
		return err
	}

	return dao.expectOne(ctx, "refresh renting", query, args, pn)
}

func (dao *CustomerDAO) Delete(ctx context.Context, pn model.PersonNumber) error {
	if err := dao.GenericDAO.Delete(ctx, TableCustomers, ColumnPersonNumber, pn); err != nil {
		if IsForeignKeyViolation(err) {
			return model.NewError("customer", model.ErrReferenced)
		}

		return err
	}

	return nil
}

func (dao *CustomerDAO) expectOne(ctx context.Context, op, query string, args []any, pn model.PersonNumber) error {
	affected, err := dao.exec(ctx, op, query, args)
	if err != nil {
		return err
	}

	if affected == 0 {
		return &model.NotFoundError{Table: string(TableCustomers), Column: string(ColumnPersonNumber), Value: pn}
	}

	return nil
}
