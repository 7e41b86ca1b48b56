package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

const routeColumns = `id, source, destination, date_of_journey, departure_time, arrival_time, total_seats, available_seats, price_cents, created_at, updated_at`

type PGRouteRepository struct {
	db DBTX
}

func NewRouteRepository(db DBTX) RouteRepository {
	return &PGRouteRepository{db: db}
}

func (r *PGRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	route.DateOfJourney = domain.NormalizeDate(route.DateOfJourney)
	route.AvailableSeats = route.TotalSeats
	return r.db.QueryRow(ctx, `INSERT INTO routes (source, destination, date_of_journey, departure_time, arrival_time, total_seats, available_seats, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		route.Source, route.Destination, route.DateOfJourney, route.DepartureTime, route.ArrivalTime, route.TotalSeats, route.AvailableSeats, route.PriceCents).
		Scan(&route.ID, &route.CreatedAt, &route.UpdatedAt)
}

func (r *PGRouteRepository) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	row := r.db.QueryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id=$1`, id)
	route, err := scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFoundError{Resource: "route", Err: err}
	}
	return route, err
}

func (r *PGRouteRepository) Search(ctx context.Context, source, destination string, date time.Time) ([]domain.Route, error) {
	rows, err := r.db.Query(ctx, `SELECT `+routeColumns+` FROM routes
		WHERE LOWER(source) = LOWER($1) AND LOWER(destination) = LOWER($2) AND date_of_journey = $3
		ORDER BY departure_time, id`, source, destination, domain.NormalizeDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := make([]domain.Route, 0)
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *route)
	}
	return routes, rows.Err()
}

func (r *PGRouteRepository) Reserve(ctx context.Context, routeID int64, seats int) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE routes SET available_seats = available_seats - $1, updated_at = now() WHERE id=$2 AND available_seats >= $1`, seats, routeID)
	if err != nil {
		return false, fmt.Errorf("reserve seats: %w", err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *PGRouteRepository) Release(ctx context.Context, routeID int64, seats int) error {
	res, err := r.db.Exec(ctx, `UPDATE routes SET available_seats = available_seats + $1, updated_at = now() WHERE id=$2`, seats, routeID)
	if err != nil {
		return fmt.Errorf("release seats: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "route"}
	}
	return nil
}

func scanRoute(row pgx.Row) (*domain.Route, error) {
	var rt domain.Route
	if err := row.Scan(&rt.ID, &rt.Source, &rt.Destination, &rt.DateOfJourney, &rt.DepartureTime, &rt.ArrivalTime, &rt.TotalSeats, &rt.AvailableSeats, &rt.PriceCents, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return nil, err
	}
	return &rt, nil
}

var _ RouteRepository = (*PGRouteRepository)(nil)
