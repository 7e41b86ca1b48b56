package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
)

type MySQLRouteRepository struct {
	q SQLDBTX
}

func (r *MySQLRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	now := time.Now().UTC()
	route.DateOfJourney = domain.NormalizeDate(route.DateOfJourney)
	route.AvailableSeats = route.TotalSeats
	res, err := r.q.ExecContext(ctx, `INSERT INTO routes (source, destination, date_of_journey, departure_time, arrival_time, total_seats, available_seats, price_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		route.Source, route.Destination, route.DateOfJourney, route.DepartureTime, nullString(route.ArrivalTime), route.TotalSeats, route.AvailableSeats, route.PriceCents, now, now)
	if err != nil {
		return fmt.Errorf("insert route: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	route.ID = id
	route.CreatedAt = now
	route.UpdatedAt = now
	return nil
}

func (r *MySQLRouteRepository) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	route, err := scanMySQLRoute(r.q.QueryRowContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError{Resource: "route", Err: err}
	}
	return route, err
}

func (r *MySQLRouteRepository) Search(ctx context.Context, source, destination string, date time.Time) ([]domain.Route, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+routeColumns+` FROM routes
		WHERE LOWER(source) = LOWER(?) AND LOWER(destination) = LOWER(?) AND date_of_journey = ?
		ORDER BY departure_time, id`, source, destination, domain.NormalizeDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := make([]domain.Route, 0)
	for rows.Next() {
		route, err := scanMySQLRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *route)
	}
	return routes, rows.Err()
}

func (r *MySQLRouteRepository) Reserve(ctx context.Context, routeID int64, seats int) (bool, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE routes SET available_seats = available_seats - ?, updated_at = ? WHERE id = ? AND available_seats >= ?`,
		seats, time.Now().UTC(), routeID, seats)
	if err != nil {
		return false, fmt.Errorf("reserve seats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *MySQLRouteRepository) Release(ctx context.Context, routeID int64, seats int) error {
	res, err := r.q.ExecContext(ctx, `UPDATE routes SET available_seats = available_seats + ?, updated_at = ? WHERE id = ?`,
		seats, time.Now().UTC(), routeID)
	if err != nil {
		return fmt.Errorf("release seats: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.NotFoundError{Resource: "route"}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMySQLRoute(row rowScanner) (*domain.Route, error) {
	var rt domain.Route
	var arrival sql.NullString
	if err := row.Scan(&rt.ID, &rt.Source, &rt.Destination, &rt.DateOfJourney, &rt.DepartureTime, &arrival, &rt.TotalSeats, &rt.AvailableSeats, &rt.PriceCents, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return nil, err
	}
	if arrival.Valid {
		rt.ArrivalTime = &arrival.String
	}
	return &rt, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var _ RouteRepository = (*MySQLRouteRepository)(nil)
