package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *repository.MemoryStore
	service   *BookingService
	route     *domain.Route
	passenger *domain.Passenger
}

func newFixture(t *testing.T, totalSeats int, priceCents int64) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	route := &domain.Route{Source: "Pune", Destination: "Mumbai", DateOfJourney: journey, DepartureTime: "08:00", TotalSeats: totalSeats, PriceCents: priceCents}
	require.NoError(t, store.Routes().Create(ctx, route))
	passenger := &domain.Passenger{Name: "Asha", Email: "asha@example.com", Phone: "1"}
	require.NoError(t, store.Passengers().Create(ctx, passenger))

	return &fixture{store: store, service: NewBookingService(store, nil, nil, ""), route: route, passenger: passenger}
}

func (f *fixture) available(t *testing.T) int {
	t.Helper()
	rt, err := f.store.Routes().GetByID(context.Background(), f.route.ID)
	require.NoError(t, err)
	return rt.AvailableSeats
}

func (f *fixture) confirmedSeats(t *testing.T) int {
	t.Helper()
	bookings, err := f.store.Bookings().List(context.Background(), domain.BookingFilter{})
	require.NoError(t, err)
	seats := 0
	for _, b := range bookings {
		if b.RouteID == f.route.ID && b.Status == domain.BookingStatusConfirmed {
			seats += b.SeatCount
		}
	}
	return seats
}

func onePassenger() []domain.BookedPassenger {
	return []domain.BookedPassenger{{Name: "Asha", Age: 30, Gender: "F"}}
}

func TestEngine_BookAndCancelScenario(t *testing.T) {
	f := newFixture(t, 10, domain.CentsFromAmount(20.0))
	ctx := context.Background()

	receipt, err := f.service.Book(ctx, BookInput{
		PassengerID: f.passenger.ID,
		RouteID:     f.route.ID,
		Passengers: []domain.BookedPassenger{
			{Name: "A", Age: 30, Gender: "F"},
			{Name: "B", Age: 31, Gender: "M"},
			{Name: "C", Age: 9, Gender: "F"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, receipt.SeatCount)
	assert.Equal(t, 60.0, domain.AmountFromCents(receipt.TotalPriceCents))
	assert.Equal(t, domain.BookingStatusConfirmed, receipt.Status)
	assert.Equal(t, 7, f.available(t))

	ok, err := f.service.Cancel(ctx, f.passenger.ID, receipt.BookingID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 10, f.available(t))

	b, err := f.store.Bookings().GetByID(ctx, receipt.BookingID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, b.Status)

	// повторная отмена
	ok, err = f.service.Cancel(ctx, f.passenger.ID, receipt.BookingID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 10, f.available(t))
}

func TestEngine_ConcurrentBooksNeverOversell(t *testing.T) {
	const seats, callers = 5, 40
	f := newFixture(t, seats, 1000)

	var wg sync.WaitGroup
	var succeeded, rejected int64
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Book(context.Background(), BookInput{PassengerID: f.passenger.ID, RouteID: f.route.ID, Passengers: onePassenger()})
			switch {
			case err == nil:
				atomic.AddInt64(&succeeded, 1)
			case domain.IsSeatNotAvailable(err):
				atomic.AddInt64(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(seats), succeeded)
	assert.Equal(t, int64(callers-seats), rejected)
	assert.Equal(t, 0, f.available(t))
	assert.Equal(t, seats, f.confirmedSeats(t))
}

func TestEngine_ConcurrentCancelsReleaseOnce(t *testing.T) {
	f := newFixture(t, 10, 1000)
	ctx := context.Background()

	receipt, err := f.service.Book(ctx, BookInput{PassengerID: f.passenger.ID, RouteID: f.route.ID, Passengers: []domain.BookedPassenger{
		{Name: "A", Age: 30, Gender: "F"}, {Name: "B", Age: 30, Gender: "M"},
	}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var trues int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.service.Cancel(context.Background(), f.passenger.ID, receipt.BookingID)
			assert.NoError(t, err)
			if ok {
				atomic.AddInt64(&trues, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), trues)
	assert.Equal(t, 10, f.available(t))
}

func TestEngine_CapacityInvariantAcrossMixedOperations(t *testing.T) {
	f := newFixture(t, 6, 500)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		receipt, err := f.service.Book(ctx, BookInput{PassengerID: f.passenger.ID, RouteID: f.route.ID, Passengers: onePassenger()})
		require.NoError(t, err)
		ids = append(ids, receipt.BookingID)
		assert.Equal(t, f.route.TotalSeats, f.available(t)+f.confirmedSeats(t))
	}

	_, err := f.service.Book(ctx, BookInput{PassengerID: f.passenger.ID, RouteID: f.route.ID, Passengers: []domain.BookedPassenger{
		{Name: "A", Age: 1, Gender: "F"}, {Name: "B", Age: 2, Gender: "M"}, {Name: "C", Age: 3, Gender: "F"},
	}})
	assert.True(t, domain.IsSeatNotAvailable(err))
	assert.Equal(t, 2, f.available(t))

	for _, id := range ids[:2] {
		_, err := f.service.Cancel(ctx, f.passenger.ID, id)
		require.NoError(t, err)
		assert.Equal(t, f.route.TotalSeats, f.available(t)+f.confirmedSeats(t))
	}
	assert.Equal(t, 4, f.available(t))
}

func TestEngine_InvalidManifestLeavesInventory(t *testing.T) {
	f := newFixture(t, 10, 1000)

	_, err := f.service.Book(context.Background(), BookInput{PassengerID: f.passenger.ID, RouteID: f.route.ID, Passengers: []domain.BookedPassenger{
		{Name: "A", Age: 30, Gender: "F"}, {Name: "", Age: 30, Gender: "M"},
	}})
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 10, f.available(t))
	assert.Equal(t, 0, f.confirmedSeats(t))
}

func TestEngine_CancelByOtherPassengerLeavesInventory(t *testing.T) {
	f := newFixture(t, 10, 1000)
	ctx := context.Background()

	receipt, err := f.service.Book(ctx, BookInput{PassengerID: f.passenger.ID, RouteID: f.route.ID, Passengers: onePassenger()})
	require.NoError(t, err)

	other := &domain.Passenger{Name: "Ravi", Email: "ravi@example.com", Phone: "2"}
	require.NoError(t, f.store.Passengers().Create(ctx, other))

	ok, err := f.service.Cancel(ctx, other.ID, receipt.BookingID)
	assert.False(t, ok)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, 9, f.available(t))

	b, err := f.store.Bookings().GetByID(ctx, receipt.BookingID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, b.Status)
}

func TestEngine_ListBookingsByPassenger(t *testing.T) {
	f := newFixture(t, 10, 1000)
	ctx := context.Background()

	receipt, err := f.service.Book(ctx, BookInput{PassengerID: f.passenger.ID, RouteID: f.route.ID, Passengers: onePassenger()})
	require.NoError(t, err)

	mine, err := f.service.ListBookings(ctx, domain.BookingFilter{PassengerID: &f.passenger.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, receipt.BookingID, mine[0].ID)
	assert.Equal(t, "Pune", mine[0].Source)

	byID, err := f.service.ListBookings(ctx, domain.BookingFilter{BookingID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, byID)
}

func TestEngine_BookStoresTrimmedManifest(t *testing.T) {
	f := newFixture(t, 10, 1000)
	ctx := context.Background()
	input := []domain.BookedPassenger{{Name: "  Asha ", Age: 30, Gender: " F"}}

	receipt, err := f.service.Book(ctx, BookInput{PassengerID: f.passenger.ID, RouteID: f.route.ID, Passengers: input})
	require.NoError(t, err)

	b, err := f.store.Bookings().GetByID(ctx, receipt.BookingID)
	require.NoError(t, err)
	assert.Equal(t, []domain.BookedPassenger{{Name: "Asha", Age: 30, Gender: "F"}}, b.Passengers)
	// вход вызывающего не изменяется
	assert.Equal(t, "  Asha ", input[0].Name)
}

func TestEngine_ListBookingsByIDIgnoresOtherFilters(t *testing.T) {
	f := newFixture(t, 10, 1000)
	ctx := context.Background()

	receipt, err := f.service.Book(ctx, BookInput{PassengerID: f.passenger.ID, RouteID: f.route.ID, Passengers: onePassenger()})
	require.NoError(t, err)

	otherDay := journey.AddDate(0, 0, 5)
	otherPID := f.passenger.ID + 100
	found, err := f.service.ListBookings(ctx, domain.BookingFilter{BookingID: receipt.BookingID, Date: &otherDay, PassengerID: &otherPID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, receipt.BookingID, found[0].ID)
}
