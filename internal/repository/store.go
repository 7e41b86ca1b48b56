package repository

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
)

// RouteRepository owns each route's seat inventory.
type RouteRepository interface {
	Create(ctx context.Context, route *domain.Route) error
	GetByID(ctx context.Context, id int64) (*domain.Route, error)
	Search(ctx context.Context, source, destination string, date time.Time) ([]domain.Route, error)
	// Reserve decrements available seats by n only if at least n are available.
	// The check and the decrement are a single storage operation.
	Reserve(ctx context.Context, routeID int64, seats int) (bool, error)
	// Release adds seats back without an upper bound check.
	Release(ctx context.Context, routeID int64, seats int) error
}

// BookingRepository is the booking ledger: bookings and their passenger manifests.
type BookingRepository interface {
	Insert(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	// UpdateStatus moves a booking from one status to another and reports
	// whether the booking was in the expected status.
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status domain.BookingStatus) (int64, error)
	SumPriceWhereStatusNot(ctx context.Context, status domain.BookingStatus) (int64, error)
}

type PassengerRepository interface {
	Create(ctx context.Context, passenger *domain.Passenger) error
	GetByID(ctx context.Context, id int64) (*domain.Passenger, error)
	GetByEmail(ctx context.Context, email string) (*domain.Passenger, error)
}

// Store groups the repositories of one backend. WithTx runs fn against a Store
// bound to a single transaction: fn's changes are committed together when it
// returns nil and rolled back together otherwise.
type Store interface {
	Routes() RouteRepository
	Bookings() BookingRepository
	Passengers() PassengerRepository
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Migrate(ctx context.Context) error
	Close() error
}

//go:embed schema/*.sql
var schemaFS embed.FS

func schemaStatements(dialect string) ([]string, error) {
	data, err := schemaFS.ReadFile(fmt.Sprintf("schema/%s.sql", dialect))
	if err != nil {
		return nil, fmt.Errorf("read %s schema: %w", dialect, err)
	}
	var stmts []string
	for _, stmt := range strings.Split(string(data), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

func checkTransition(from, to domain.BookingStatus) error {
	if !from.CanTransition(to) {
		return domain.ValidationError{Field: "status", Msg: fmt.Sprintf("cannot move from %s to %s", from, to)}
	}
	return nil
}
