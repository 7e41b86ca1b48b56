package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, passenger_id, route_id, source, destination, date_of_journey, seat_count, total_price_cents, status, created_at, updated_at`

type PGBookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) BookingRepository {
	return &PGBookingRepository{db: db}
}

// Insert writes the booking row and its manifest. Callers run it inside
// Store.WithTx so both land together with the seat reservation.
func (r *PGBookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}
	booking.DateOfJourney = domain.NormalizeDate(booking.DateOfJourney)

	if err := r.db.QueryRow(ctx, `INSERT INTO bookings (id, passenger_id, route_id, source, destination, date_of_journey, seat_count, total_price_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		booking.ID, booking.PassengerID, booking.RouteID, booking.Source, booking.Destination, booking.DateOfJourney, booking.SeatCount, booking.TotalPriceCents, booking.Status).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		if isPGUniqueViolation(err) {
			return domain.ConflictError{Resource: "booking", Msg: "id already used", Err: err}
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	batch := &pgx.Batch{}
	for i, p := range booking.Passengers {
		batch.Queue(`INSERT INTO booked_passengers (booking_id, position, name, age, gender) VALUES ($1, $2, $3, $4, $5)`,
			booking.ID, i, p.Name, p.Age, p.Gender)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert booked passengers: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
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
		args = append(args, domain.NormalizeDate(*filter.Date))
		query += fmt.Sprintf(" AND date_of_journey = $%d", len(args))
	}
	if filter.PassengerID != nil {
		args = append(args, *filter.PassengerID)
		query += fmt.Sprintf(" AND passenger_id = $%d", len(args))
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
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

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error) {
	if err := checkTransition(from, to); err != nil {
		return false, err
	}
	res, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`, to, id, from)
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *PGBookingRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n)
	return n, err
}

func (r *PGBookingRepository) CountByStatus(ctx context.Context, status domain.BookingStatus) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE status=$1`, status).Scan(&n)
	return n, err
}

func (r *PGBookingRepository) SumPriceWhereStatusNot(ctx context.Context, status domain.BookingStatus) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total_price_cents), 0)::BIGINT FROM bookings WHERE status <> $1`, status).Scan(&sum)
	return sum, err
}

func (r *PGBookingRepository) manifests(ctx context.Context, ids []string) (map[string][]domain.BookedPassenger, error) {
	rows, err := r.db.Query(ctx, `SELECT booking_id, name, age, gender FROM booked_passengers WHERE booking_id = ANY($1) ORDER BY booking_id, position`, ids)
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

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.PassengerID, &b.RouteID, &b.Source, &b.Destination, &b.DateOfJourney, &b.SeatCount, &b.TotalPriceCents, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
