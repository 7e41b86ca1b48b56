package booking

import (
	"context"
	"log"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/Domenick1991/busbooking/internal/ticket"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*domain.Receipt, error)
	Cancel(ctx context.Context, passengerID int64, bookingID string) (bool, error)
	ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	Ticket(ctx context.Context, passengerID int64, bookingID string) ([]byte, error)
}

// Cache is the part of the route search cache a booking has to keep fresh.
type Cache interface {
	InvalidateRoutes(ctx context.Context, source, destination string, date time.Time) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	store              repository.Store
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	newID              func() string
}

type BookInput struct {
	PassengerID int64                    `json:"passenger_id"`
	RouteID     int64                    `json:"route_id"`
	Passengers  []domain.BookedPassenger `json:"passengers"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithIDGenerator(newID func() string) BookingServiceOption {
	return func(s *BookingService) {
		s.newID = newID
	}
}

// NewBookingService wires the reservation engine. cache and producer may be nil.
func NewBookingService(
	store repository.Store,
	cache Cache,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:        store,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book reserves one seat per manifest entry and records a CONFIRMED booking.
// The seat decrement and the booking insert commit together or not at all.
func (s *BookingService) Book(ctx context.Context, input BookInput) (*domain.Receipt, error) {
	if _, err := s.store.Passengers().GetByID(ctx, input.PassengerID); err != nil {
		return nil, err
	}
	route, err := s.store.Routes().GetByID(ctx, input.RouteID)
	if err != nil {
		return nil, err
	}

	passengers := domain.NormalizeManifest(input.Passengers)
	seats := len(passengers)
	if err := domain.ValidateManifest(passengers); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:              s.newID(),
		PassengerID:     input.PassengerID,
		RouteID:         route.ID,
		Source:          route.Source,
		Destination:     route.Destination,
		DateOfJourney:   route.DateOfJourney,
		SeatCount:       seats,
		TotalPriceCents: route.PriceCents * int64(seats),
		Status:          domain.BookingStatusConfirmed,
		Passengers:      passengers,
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Routes().Reserve(ctx, route.ID, seats)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrSeatNotAvailable
		}
		return tx.Bookings().Insert(ctx, booking)
	})
	if err != nil {
		log.Printf("booking rejected passenger_id=%d route_id=%d seats=%d err=%v", input.PassengerID, route.ID, seats, err)
		return nil, err
	}
	log.Printf("booking confirmed booking_id=%s passenger_id=%d route_id=%d seats=%d total_cents=%d",
		booking.ID, booking.PassengerID, booking.RouteID, booking.SeatCount, booking.TotalPriceCents)

	s.afterCommit(ctx, kafka.EventBookingConfirmed, booking)

	return &domain.Receipt{
		BookingID:       booking.ID,
		PassengerID:     booking.PassengerID,
		RouteID:         booking.RouteID,
		SeatCount:       booking.SeatCount,
		TotalPriceCents: booking.TotalPriceCents,
		Status:          booking.Status,
	}, nil
}

// Cancel reports false when the booking was already cancelled. Bookings owned
// by another passenger are reported as not found.
func (s *BookingService) Cancel(ctx context.Context, passengerID int64, bookingID string) (bool, error) {
	current, err := s.ownedBooking(ctx, passengerID, bookingID)
	if err != nil {
		return false, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return false, nil
	}

	cancelled := false
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Bookings().UpdateStatus(ctx, current.ID, domain.BookingStatusConfirmed, domain.BookingStatusCancelled)
		if err != nil || !ok {
			return err
		}
		if err := tx.Routes().Release(ctx, current.RouteID, current.SeatCount); err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !cancelled {
		return false, nil
	}
	log.Printf("booking cancelled booking_id=%s passenger_id=%d route_id=%d seats=%d",
		current.ID, passengerID, current.RouteID, current.SeatCount)

	current.Status = domain.BookingStatusCancelled
	s.afterCommit(ctx, kafka.EventBookingCancelled, current)
	return true, nil
}

func (s *BookingService) ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	return s.store.Bookings().List(ctx, filter)
}

func (s *BookingService) Ticket(ctx context.Context, passengerID int64, bookingID string) ([]byte, error) {
	b, err := s.ownedBooking(ctx, passengerID, bookingID)
	if err != nil {
		return nil, err
	}
	route, err := s.store.Routes().GetByID(ctx, b.RouteID)
	if err != nil && !domain.IsNotFound(err) {
		return nil, err
	}
	return ticket.Render(b, route)
}

func (s *BookingService) ownedBooking(ctx context.Context, passengerID int64, bookingID string) (*domain.Booking, error) {
	b, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PassengerID != passengerID {
		return nil, domain.NotFoundError{Resource: "booking"}
	}
	return b, nil
}

// afterCommit runs the best-effort side effects of a committed change.
func (s *BookingService) afterCommit(ctx context.Context, eventType string, b *domain.Booking) {
	if s.cache != nil {
		if err := s.cache.InvalidateRoutes(ctx, b.Source, b.Destination, b.DateOfJourney); err != nil {
			log.Printf("WARNING: route cache invalidation failed booking_id=%s err=%v", b.ID, err)
		}
	}
	if err := s.publish(ctx, eventType, b); err != nil {
		log.Printf("WARNING: failed to publish %s booking_id=%s err=%v", eventType, b.ID, err)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.NewBookingEvent(eventType, b)
	if err := s.producer.Publish(ctx, s.bookingTopic, b.ID, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, b.ID, event)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
