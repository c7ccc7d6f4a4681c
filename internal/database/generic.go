package database

import (
	"context"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/protomem/car-rental/internal/model"
)

// GenericDAO runs table-agnostic statements. Values are always bound;
// table and column names must come from the identifier allow-list, and
// suffixes are raw SQL supplied by this package's callers only.
type GenericDAO struct {
	Logger *slog.Logger
	Handle

	lastID model.ID
}

func NewGenericDAO(logger *slog.Logger, h Handle) *GenericDAO {
	return &GenericDAO{
		Logger: logger,
		Handle: h,
	}
}

// ExecuteQuery runs query+suffix and scans every row into dest, which must
// be a pointer to a slice.
func (dao *GenericDAO) ExecuteQuery(ctx context.Context, dest any, query string, args []any, suffix string) error {
	logger := dao.Logger.With("query", "execute")

	query += suffix

	logger.Debug("build query", "sql", query, "args", args)

	if err := sqlx.SelectContext(ctx, dao.ExtContext, dest, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		return newDatabaseError("execute query", err)
	}

	logger.Debug("success query execute")

	return nil
}

// GetOne scans the first row of table whose column equals value into dest.
func (dao *GenericDAO) GetOne(ctx context.Context, dest any, table Table, column Column, value any, suffix string) error {
	logger := dao.Logger.With("query", "getOne", "table", table)

	if err := checkIdent(table, column); err != nil {
		return err
	}

	builder := dao.Builder.
		Select("*").
		From(string(table)).
		Where(squirrel.Eq{string(column): value})
	if suffix != "" {
		builder = builder.Suffix(suffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query, "args", args)

	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(dest); err != nil {
		if IsNoRows(err) {
			logger.Debug("no rows", "column", column, "value", value)

			return &model.NotFoundError{Table: string(table), Column: string(column), Value: value}
		}

		logger.Warn("failed query execute", "error", err)

		return newDatabaseError("get one", err)
	}

	logger.Debug("success query execute")

	return nil
}

// GetAll scans every row of table ordered by orderColumn into dest.
// An empty table is not an error.
func (dao *GenericDAO) GetAll(ctx context.Context, dest any, table Table, orderColumn Column) error {
	logger := dao.Logger.With("query", "getAll", "table", table)

	if err := checkIdent(table, orderColumn); err != nil {
		return err
	}

	query, args, err := dao.Builder.
		Select("*").
		From(string(table)).
		OrderBy(string(orderColumn)).
		ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query, "args", args)

	if err := sqlx.SelectContext(ctx, dao.ExtContext, dest, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		return newDatabaseError("get all", err)
	}

	logger.Debug("success query execute")

	return nil
}

// InsertOrUpdate runs a caller-built statement. Inserts must end with
// RETURNING id; the returned id is remembered. Statements that yield no row
// return the last remembered id unchanged.
func (dao *GenericDAO) InsertOrUpdate(ctx context.Context, query string, args []any) (model.ID, error) {
	logger := dao.Logger.With("query", "insertOrUpdate")

	logger.Debug("build query", "sql", query, "args", args)

	var id model.ID
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&id); err != nil {
		if IsNoRows(err) {
			logger.Debug("success query execute", "lastInsertId", dao.lastID)

			return dao.lastID, nil
		}

		logger.Warn("failed query execute", "error", err)

		return 0, newDatabaseError("insert or update", err)
	}

	dao.lastID = id

	logger.Debug("success query execute", "insertId", id)

	return id, nil
}

// Delete removes the rows of table whose column equals value. Matching
// nothing is not an error.
func (dao *GenericDAO) Delete(ctx context.Context, table Table, column Column, value any) error {
	if err := checkIdent(table, column); err != nil {
		return err
	}

	query, args, err := dao.Builder.
		Delete(string(table)).
		Where(squirrel.Eq{string(column): value}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = dao.exec(ctx, "delete", query, args)
	return err
}

// NullifyColumn sets column to NULL in every row where it equals value.
func (dao *GenericDAO) NullifyColumn(ctx context.Context, table Table, column Column, value any) error {
	if err := checkIdent(table, column); err != nil {
		return err
	}

	query, args, err := dao.Builder.
		Update(string(table)).
		Set(string(column), squirrel.Expr("NULL")).
		Where(squirrel.Eq{string(column): value}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = dao.exec(ctx, "nullify column", query, args)
	return err
}

func (dao *GenericDAO) exec(ctx context.Context, op string, query string, args []any) (int64, error) {
	logger := dao.Logger.With("query", op)

	logger.Debug("build query", "sql", query, "args", args)

	res, err := dao.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Warn("failed query execute", "error", err)

		return 0, newDatabaseError(op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, newDatabaseError(op, err)
	}

	logger.Debug("success query execute", "rowsAffected", affected)

	return affected, nil
}
