package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
)

type MySQLBookingRepository struct {
	q SQLDBTX
}

func (r *MySQLBookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	booking.DateOfJourney = domain.NormalizeDate(booking.DateOfJourney)

	if _, err := r.q.ExecContext(ctx, `INSERT INTO bookings (id, passenger_id, route_id, source, destination, date_of_journey, seat_count, total_price_cents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID, booking.PassengerID, booking.RouteID, booking.Source, booking.Destination, booking.DateOfJourney, booking.SeatCount, booking.TotalPriceCents, string(booking.Status), now, now); err != nil {
		if isMySQLDuplicate(err) {
			return domain.ConflictError{Resource: "booking", Msg: "id already used", Err: err}
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	query := `INSERT INTO booked_passengers (booking_id, position, name, age, gender) VALUES `
	args := make([]any, 0, len(booking.Passengers)*5)
	for i, p := range booking.Passengers {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, booking.ID, i, p.Name, p.Age, p.Gender)
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert booked passengers: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (r *MySQLBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanMySQLBooking(r.q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return nil, err
	}
	manifests, err := r.manifests(ctx, []string{b.ID})
	if err != nil {
		return nil, err
	}
	b.Passengers = manifests[b.ID]
	return b, nil
}

func (r *MySQLBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	if filter.BookingID != "" {
		b, err := r.GetByID(ctx, filter.BookingID)
		if domain.IsNotFound(err) {
			return []domain.Booking{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []domain.Booking{*b}, nil
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []any
	if filter.Date != nil {
		query += " AND date_of_journey = ?"
		args = append(args, domain.NormalizeDate(*filter.Date))
	}
	if filter.PassengerID != nil {
		query += " AND passenger_id = ?"
		args = append(args, *filter.PassengerID)
	}
	query += " ORDER BY created_at, id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanMySQLBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}

	ids := make([]string, len(bookings))
	for i := range bookings {
		ids[i] = bookings[i].ID
	}
	manifests, err := r.manifests(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].Passengers = manifests[bookings[i].ID]
	}
	return bookings, nil
}

func (r *MySQLBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error) {
	if err := checkTransition(from, to); err != nil {
		return false, err
	}
	res, err := r.q.ExecContext(ctx, `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *MySQLBookingRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n)
	return n, err
}

func (r *MySQLBookingRepository) CountByStatus(ctx context.Context, status domain.BookingStatus) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE status = ?`, string(status)).Scan(&n)
	return n, err
}

func (r *MySQLBookingRepository) SumPriceWhereStatusNot(ctx context.Context, status domain.BookingStatus) (int64, error) {
	var sum int64
	err := r.q.QueryRowContext(ctx, `SELECT COALESCE(SUM(total_price_cents), 0) FROM bookings WHERE status <> ?`, string(status)).Scan(&sum)
	return sum, err
}

func (r *MySQLBookingRepository) manifests(ctx context.Context, ids []string) (map[string][]domain.BookedPassenger, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.q.QueryContext(ctx, `SELECT booking_id, name, age, gender FROM booked_passengers WHERE booking_id IN (`+placeholders+`) ORDER BY booking_id, position`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.BookedPassenger, len(ids))
	for rows.Next() {
		var bookingID string
		var p domain.BookedPassenger
		if err := rows.Scan(&bookingID, &p.Name, &p.Age, &p.Gender); err != nil {
			return nil, err
		}
		out[bookingID] = append(out[bookingID], p)
	}
	return out, rows.Err()
}

func scanMySQLBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var status string
	if err := row.Scan(&b.ID, &b.PassengerID, &b.RouteID, &b.Source, &b.Destination, &b.DateOfJourney, &b.SeatCount, &b.TotalPriceCents, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	return &b, nil
}

var _ BookingRepository = (*MySQLBookingRepository)(nil)
