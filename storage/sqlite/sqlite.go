package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"dogbot/migrations"
	"dogbot/pkg/logger"
	"dogbot/storage"
)

type Store struct {
	db  *sql.DB
	log logger.ILogger
}

// New opens the database at path (":memory:" is allowed) and applies the
// embedded migrations. SQLite has a single writer, so the pool is capped at
// one connection and every transaction is serialized.
func New(ctx context.Context, path string, log logger.ILogger) (storage.IStorage, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Error("error while opening sqlite", logger.Error(err))
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect sqlite", logger.Error(err))
		return nil, err
	}

	if err := migrateUp(db); err != nil {
		log.Error("migration up error", logger.Error(err))
		_ = db.Close()
		return nil, err
	}

	log.Info("SQLite connected", logger.String("path", path))

	return &Store{db: db, log: log}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations.SQLite, "sqlite")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	drv, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Store) Close() {
	_ = s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) User() storage.IUserStorage         { return NewUserRepo(s.db, s.log) }
func (s *Store) Walker() storage.IWalkerStorage     { return NewWalkerRepo(s.db, s.log) }
func (s *Store) Order() storage.IOrderStorage       { return NewOrderRepo(s.db, s.log) }
func (s *Store) Proposal() storage.IProposalStorage { return NewProposalRepo(s.db, s.log) }
