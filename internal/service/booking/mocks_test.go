package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Mock структуры

type MockStore struct {
	routes     *MockRouteRepository
	bookings   *MockBookingRepository
	passengers *MockPassengerRepository
	txErr      error
}

func newMockStore() *MockStore {
	return &MockStore{
		routes:     &MockRouteRepository{},
		bookings:   &MockBookingRepository{},
		passengers: &MockPassengerRepository{},
	}
}

func (m *MockStore) Routes() repository.RouteRepository         { return m.routes }
func (m *MockStore) Bookings() repository.BookingRepository     { return m.bookings }
func (m *MockStore) Passengers() repository.PassengerRepository { return m.passengers }

func (m *MockStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(m)
}

func (m *MockStore) Migrate(context.Context) error { return nil }
func (m *MockStore) Close() error                  { return nil }

type MockRouteRepository struct {
	mock.Mock
}

func (m *MockRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	args := m.Called(ctx, route)
	return args.Error(0)
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Route), args.Error(1)
}

func (m *MockRouteRepository) Search(ctx context.Context, source, destination string, date time.Time) ([]domain.Route, error) {
	args := m.Called(ctx, source, destination, date)
	return args.Get(0).([]domain.Route), args.Error(1)
}

func (m *MockRouteRepository) Reserve(ctx context.Context, routeID int64, seats int) (bool, error) {
	args := m.Called(ctx, routeID, seats)
	return args.Bool(0), args.Error(1)
}

func (m *MockRouteRepository) Release(ctx context.Context, routeID int64, seats int) error {
	args := m.Called(ctx, routeID, seats)
	return args.Error(0)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) CountByStatus(ctx context.Context, status domain.BookingStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) SumPriceWhereStatusNot(ctx context.Context, status domain.BookingStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

type MockPassengerRepository struct {
	mock.Mock
}

func (m *MockPassengerRepository) Create(ctx context.Context, p *domain.Passenger) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPassengerRepository) GetByID(ctx context.Context, id int64) (*domain.Passenger, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Passenger), args.Error(1)
}

func (m *MockPassengerRepository) GetByEmail(ctx context.Context, email string) (*domain.Passenger, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Passenger), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateRoutes(ctx context.Context, source, destination string, date time.Time) error {
	args := m.Called(ctx, source, destination, date)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}
