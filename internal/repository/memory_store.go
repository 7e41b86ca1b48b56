package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
)

type memoryState struct {
	routes          map[int64]domain.Route
	bookings        map[string]domain.Booking
	passengers      map[int64]domain.Passenger
	nextRouteID     int64
	nextPassengerID int64
}

func (st *memoryState) clone() *memoryState {
	cp := &memoryState{
		routes:          make(map[int64]domain.Route, len(st.routes)),
		bookings:        make(map[string]domain.Booking, len(st.bookings)),
		passengers:      make(map[int64]domain.Passenger, len(st.passengers)),
		nextRouteID:     st.nextRouteID,
		nextPassengerID: st.nextPassengerID,
	}
	for k, v := range st.routes {
		cp.routes[k] = v
	}
	for k, v := range st.bookings {
		cp.bookings[k] = v
	}
	for k, v := range st.passengers {
		cp.passengers[k] = v
	}
	return cp
}

// MemoryStore keeps everything in process. All operations are serialized
// on one mutex; a transaction holds it for its whole duration and restores
// a snapshot when fn fails.
type MemoryStore struct {
	mu    *sync.Mutex
	state **memoryState
	inTx  bool
}

func NewMemoryStore() *MemoryStore {
	st := &memoryState{
		routes:     make(map[int64]domain.Route),
		bookings:   make(map[string]domain.Booking),
		passengers: make(map[int64]domain.Passenger),
	}
	return &MemoryStore{mu: &sync.Mutex{}, state: &st}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Routes() RouteRepository         { return &memoryRouteRepository{s: s} }
func (s *MemoryStore) Bookings() BookingRepository     { return &memoryBookingRepository{s: s} }
func (s *MemoryStore) Passengers() PassengerRepository { return &memoryPassengerRepository{s: s} }

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := (*s.state).clone()
	if err := fn(&MemoryStore{mu: s.mu, state: s.state, inTx: true}); err != nil {
		*s.state = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }

type memoryRouteRepository struct {
	s *MemoryStore
}

func (r *memoryRouteRepository) Create(_ context.Context, route *domain.Route) error {
	defer r.s.lock()()
	st := *r.s.state

	st.nextRouteID++
	now := time.Now().UTC()
	route.ID = st.nextRouteID
	route.DateOfJourney = domain.NormalizeDate(route.DateOfJourney)
	route.AvailableSeats = route.TotalSeats
	route.CreatedAt = now
	route.UpdatedAt = now
	st.routes[route.ID] = copyRoute(*route)
	return nil
}

func (r *memoryRouteRepository) GetByID(_ context.Context, id int64) (*domain.Route, error) {
	defer r.s.lock()()
	rt, ok := (*r.s.state).routes[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "route"}
	}
	rt = copyRoute(rt)
	return &rt, nil
}

func (r *memoryRouteRepository) Search(_ context.Context, source, destination string, date time.Time) ([]domain.Route, error) {
	defer r.s.lock()()
	date = domain.NormalizeDate(date)
	routes := make([]domain.Route, 0)
	for _, rt := range (*r.s.state).routes {
		if strings.EqualFold(rt.Source, source) && strings.EqualFold(rt.Destination, destination) && rt.DateOfJourney.Equal(date) {
			routes = append(routes, copyRoute(rt))
		}
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].DepartureTime != routes[j].DepartureTime {
			return routes[i].DepartureTime < routes[j].DepartureTime
		}
		return routes[i].ID < routes[j].ID
	})
	return routes, nil
}

func (r *memoryRouteRepository) Reserve(_ context.Context, routeID int64, seats int) (bool, error) {
	defer r.s.lock()()
	st := *r.s.state
	rt, ok := st.routes[routeID]
	if !ok || rt.AvailableSeats < seats {
		return false, nil
	}
	rt.AvailableSeats -= seats
	rt.UpdatedAt = time.Now().UTC()
	st.routes[routeID] = rt
	return true, nil
}

func (r *memoryRouteRepository) Release(_ context.Context, routeID int64, seats int) error {
	defer r.s.lock()()
	st := *r.s.state
	rt, ok := st.routes[routeID]
	if !ok {
		return domain.NotFoundError{Resource: "route"}
	}
	rt.AvailableSeats += seats
	rt.UpdatedAt = time.Now().UTC()
	st.routes[routeID] = rt
	return nil
}

type memoryBookingRepository struct {
	s *MemoryStore
}

func (r *memoryBookingRepository) Insert(_ context.Context, booking *domain.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}
	defer r.s.lock()()
	st := *r.s.state
	if _, exists := st.bookings[booking.ID]; exists {
		return domain.ConflictError{Resource: "booking", Msg: "id already used"}
	}
	now := time.Now().UTC()
	booking.DateOfJourney = domain.NormalizeDate(booking.DateOfJourney)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	st.bookings[booking.ID] = copyBooking(*booking)
	return nil
}

func (r *memoryBookingRepository) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	defer r.s.lock()()
	b, ok := (*r.s.state).bookings[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "booking"}
	}
	b = copyBooking(b)
	return &b, nil
}

func (r *memoryBookingRepository) List(_ context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	defer r.s.lock()()
	bookings := make([]domain.Booking, 0)
	if filter.BookingID != "" {
		if b, ok := (*r.s.state).bookings[filter.BookingID]; ok {
			bookings = append(bookings, copyBooking(b))
		}
		return bookings, nil
	}
	for _, b := range (*r.s.state).bookings {
		if filter.Matches(&b) {
			bookings = append(bookings, copyBooking(b))
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
		}
		return bookings[i].ID < bookings[j].ID
	})
	return bookings, nil
}

func (r *memoryBookingRepository) UpdateStatus(_ context.Context, id string, from, to domain.BookingStatus) (bool, error) {
	if err := checkTransition(from, to); err != nil {
		return false, err
	}
	defer r.s.lock()()
	st := *r.s.state
	b, ok := st.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	st.bookings[id] = b
	return true, nil
}

func (r *memoryBookingRepository) Count(context.Context) (int64, error) {
	defer r.s.lock()()
	return int64(len((*r.s.state).bookings)), nil
}

func (r *memoryBookingRepository) CountByStatus(_ context.Context, status domain.BookingStatus) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, b := range (*r.s.state).bookings {
		if b.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memoryBookingRepository) SumPriceWhereStatusNot(_ context.Context, status domain.BookingStatus) (int64, error) {
	defer r.s.lock()()
	var sum int64
	for _, b := range (*r.s.state).bookings {
		if b.Status != status {
			sum += b.TotalPriceCents
		}
	}
	return sum, nil
}

type memoryPassengerRepository struct {
	s *MemoryStore
}

func (r *memoryPassengerRepository) Create(_ context.Context, p *domain.Passenger) error {
	defer r.s.lock()()
	st := *r.s.state
	for _, existing := range st.passengers {
		if strings.EqualFold(existing.Email, p.Email) {
			return domain.ConflictError{Resource: "passenger", Msg: "email already registered"}
		}
	}
	st.nextPassengerID++
	p.ID = st.nextPassengerID
	p.CreatedAt = time.Now().UTC()
	st.passengers[p.ID] = *p
	return nil
}

func (r *memoryPassengerRepository) GetByID(_ context.Context, id int64) (*domain.Passenger, error) {
	defer r.s.lock()()
	p, ok := (*r.s.state).passengers[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "passenger"}
	}
	return &p, nil
}

func (r *memoryPassengerRepository) GetByEmail(_ context.Context, email string) (*domain.Passenger, error) {
	defer r.s.lock()()
	for _, p := range (*r.s.state).passengers {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, domain.NotFoundError{Resource: "passenger"}
}

func copyRoute(rt domain.Route) domain.Route {
	if rt.ArrivalTime != nil {
		arrival := *rt.ArrivalTime
		rt.ArrivalTime = &arrival
	}
	return rt
}

func copyBooking(b domain.Booking) domain.Booking {
	b.Passengers = append([]domain.BookedPassenger(nil), b.Passengers...)
	return b
}

var (
	_ Store               = (*MemoryStore)(nil)
	_ RouteRepository     = (*memoryRouteRepository)(nil)
	_ BookingRepository   = (*memoryBookingRepository)(nil)
	_ PassengerRepository = (*memoryPassengerRepository)(nil)
)
