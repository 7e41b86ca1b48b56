package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLStore(db), mock
}

func TestMySQLRouteRepository_Reserve(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE routes SET available_seats = available_seats - \\?").
		WithArgs(3, sqlmock.AnyArg(), int64(7), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE routes SET available_seats = available_seats - \\?").
		WithArgs(5, sqlmock.AnyArg(), int64(7), 5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.Routes().Reserve(ctx, 7, 3)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Routes().Reserve(ctx, 7, 5)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLRouteRepository_ReleaseUnknownRoute(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE routes SET available_seats = available_seats \\+ \\?").
		WithArgs(2, sqlmock.AnyArg(), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Routes().Release(context.Background(), 99, 2)
	assert.True(t, domain.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLRouteRepository_GetByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM routes WHERE id = \\?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Routes().GetByID(context.Background(), 1)
	assert.True(t, domain.IsNotFound(err))
}

func TestMySQLRouteRepository_Search(t *testing.T) {
	store, mock := newMockStore(t)
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	cols := []string{"id", "source", "destination", "date_of_journey", "departure_time", "arrival_time", "total_seats", "available_seats", "price_cents", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM routes").
		WithArgs("Pune", "Mumbai", date).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "Pune", "Mumbai", date, "08:00", nil, 40, 38, 50000, now, now).
			AddRow(2, "Pune", "Mumbai", date, "17:30", "21:00", 30, 30, 45000, now, now))

	routes, err := store.Routes().Search(context.Background(), "Pune", "Mumbai", date.Add(5*time.Hour))
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Nil(t, routes[0].ArrivalTime)
	require.NotNil(t, routes[1].ArrivalTime)
	assert.Equal(t, "21:00", *routes[1].ArrivalTime)
	assert.Equal(t, 38, routes[0].AvailableSeats)
}

func TestMySQLPassengerRepository_CreateDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO passengers").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := store.Passengers().Create(context.Background(), &domain.Passenger{Name: "A", Email: "a@x.io", Phone: "1", PasswordHash: "h"})
	assert.True(t, domain.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLBookingRepository_Insert(t *testing.T) {
	store, mock := newMockStore(t)
	booking := &domain.Booking{
		ID:              "b-1",
		PassengerID:     4,
		RouteID:         7,
		SeatCount:       2,
		TotalPriceCents: 4000,
		Status:          domain.BookingStatusConfirmed,
		Passengers: []domain.BookedPassenger{
			{Name: "Asha", Age: 30, Gender: "F"},
			{Name: "Ravi", Age: 32, Gender: "M"},
		},
	}

	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booked_passengers").
		WithArgs("b-1", 0, "Asha", 30, "F", "b-1", 1, "Ravi", 32, "M").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, store.Bookings().Insert(context.Background(), booking))
	assert.False(t, booking.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLBookingRepository_InsertRejectsEmptyManifest(t *testing.T) {
	store, mock := newMockStore(t)

	err := store.Bookings().Insert(context.Background(), &domain.Booking{ID: "b-2", Status: domain.BookingStatusConfirmed})
	assert.True(t, domain.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLBookingRepository_UpdateStatus(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE bookings SET status = \\?").
		WithArgs("CANCELLED", sqlmock.AnyArg(), "b-1", "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET status = \\?").
		WithArgs("CANCELLED", sqlmock.AnyArg(), "b-1", "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.Bookings().UpdateStatus(ctx, "b-1", domain.BookingStatusConfirmed, domain.BookingStatusCancelled)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Bookings().UpdateStatus(ctx, "b-1", domain.BookingStatusConfirmed, domain.BookingStatusCancelled)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Bookings().UpdateStatus(ctx, "b-1", domain.BookingStatusCancelled, domain.BookingStatusConfirmed)
	assert.True(t, domain.IsValidation(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLBookingRepository_Stats(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bookings$").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bookings WHERE status = \\?").
		WithArgs("CANCELLED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(total_price_cents\\), 0\\) FROM bookings WHERE status <> \\?").
		WithArgs("CANCELLED").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(12000))

	total, err := store.Bookings().Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), total)

	cancelled, err := store.Bookings().CountByStatus(ctx, domain.BookingStatusCancelled)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), cancelled)

	revenue, err := store.Bookings().SumPriceWhereStatusNot(ctx, domain.BookingStatusCancelled)
	assert.NoError(t, err)
	assert.Equal(t, int64(12000), revenue)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_WithTxRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE routes SET available_seats = available_seats - \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx Store) error {
		ok, err := tx.Routes().Reserve(context.Background(), 1, 2)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_WithTxCommitsAndJoins(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE routes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx Store) error {
		if _, err := tx.Routes().Reserve(context.Background(), 1, 1); err != nil {
			return err
		}
		return tx.WithTx(context.Background(), func(inner Store) error {
			_, err := inner.Bookings().UpdateStatus(context.Background(), "b", domain.BookingStatusConfirmed, domain.BookingStatusCancelled)
			return err
		})
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLBookingRepository_ListByBookingIDIgnoresOtherFilters(t *testing.T) {
	store, mock := newMockStore(t)
	journey := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM bookings WHERE id = \\?").
		WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "passenger_id", "route_id", "source", "destination", "date_of_journey", "seat_count", "total_price_cents", "status", "created_at", "updated_at"}).
			AddRow("b-1", int64(4), int64(7), "Pune", "Mumbai", journey, 1, int64(2000), "CONFIRMED", now, now))
	mock.ExpectQuery("FROM booked_passengers WHERE booking_id IN \\(\\?\\)").
		WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "name", "age", "gender"}).AddRow("b-1", "Asha", 30, "F"))

	otherDay := journey.AddDate(0, 1, 0)
	otherPID := int64(9)
	found, err := store.Bookings().List(context.Background(), domain.BookingFilter{BookingID: "b-1", Date: &otherDay, PassengerID: &otherPID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b-1", found[0].ID)
	assert.Equal(t, int64(4), found[0].PassengerID)
	assert.Equal(t, []domain.BookedPassenger{{Name: "Asha", Age: 30, Gender: "F"}}, found[0].Passengers)
	assert.NoError(t, mock.ExpectationsWereMet())
}
