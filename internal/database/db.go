package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/protomem/car-rental/assets"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	_defaultTimeout = 3 * time.Second
	_driverName     = "pgx"
)

// Handle is the query surface shared by the pool and a transaction.
type Handle struct {
	sqlx.ExtContext
	Builder squirrel.StatementBuilderType
}

type DB struct {
	*sqlx.DB
	Builder squirrel.StatementBuilderType
	Logger  *slog.Logger
}

func New(logger *slog.Logger, dsn string, automigrate bool) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), _defaultTimeout)
	defer cancel()

	dsn = dsn + "?sslmode=disable" // disable SSL

	db, err := sqlx.ConnectContext(ctx, _driverName, "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		if err := migrateUp("postgres://" + dsn); err != nil {
			_ = db.Close()
			return nil, err
		}

		logger.Info("database migrated")
	}

	return Wrap(logger, db), nil
}

// Wrap builds a DB over an already opened connection pool.
func Wrap(logger *slog.Logger, db *sqlx.DB) *DB {
	return &DB{
		DB:      db,
		Builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		Logger:  logger.With("module", "database"),
	}
}

func migrateUp(url string) error {
	iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, url)
	if err != nil {
		return err
	}
	defer migrator.Close()

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		return nil
	case err != nil:
		return err
	}

	return nil
}

// Handle returns a handle running statements directly on the pool.
func (db *DB) Handle() Handle {
	return Handle{
		ExtContext: db.DB,
		Builder:    db.Builder,
	}
}

// InTx runs fn inside a READ COMMITTED transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (db *DB) InTx(ctx context.Context, fn func(h Handle) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return newDatabaseError("begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(Handle{ExtContext: tx, Builder: db.Builder}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.Logger.Error("failed to rollback transaction", "error", rbErr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return newDatabaseError("commit", err)
	}

	return nil
}
