package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// SQLDBTX is satisfied by both *sql.DB and *sql.Tx.
type SQLDBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQLStore is the database/sql backend. Reserve relies on InnoDB row locks
// taken by the conditional UPDATE.
type MySQLStore struct {
	db *sql.DB
	q  SQLDBTX
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db, q: db}
}

// OpenMySQL connects and verifies the connection.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s *MySQLStore) Routes() RouteRepository         { return &MySQLRouteRepository{q: s.q} }
func (s *MySQLStore) Bookings() BookingRepository     { return &MySQLBookingRepository{q: s.q} }
func (s *MySQLStore) Passengers() PassengerRepository { return &MySQLPassengerRepository{q: s.q} }

// WithTx joins the surrounding transaction when s is already bound to one.
func (s *MySQLStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&MySQLStore{db: s.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *MySQLStore) Migrate(ctx context.Context) error {
	stmts, err := schemaStatements("mysql")
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate mysql: %w", err)
		}
	}
	return nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func isMySQLDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

var _ Store = (*MySQLStore)(nil)
