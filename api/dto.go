package api

import (
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
)

type routeResponse struct {
	ID             int64   `json:"id"`
	Source         string  `json:"source"`
	Destination    string  `json:"destination"`
	DateOfJourney  string  `json:"date_of_journey"`
	DepartureTime  string  `json:"departure_time"`
	ArrivalTime    *string `json:"arrival_time,omitempty"`
	TotalSeats     int     `json:"total_seats"`
	AvailableSeats int     `json:"available_seats"`
	Price          float64 `json:"price"`
}

func toRouteResponse(r domain.Route) routeResponse {
	return routeResponse{
		ID:             r.ID,
		Source:         r.Source,
		Destination:    r.Destination,
		DateOfJourney:  r.DateOfJourney.Format(domain.DateLayout),
		DepartureTime:  r.DepartureTime,
		ArrivalTime:    r.ArrivalTime,
		TotalSeats:     r.TotalSeats,
		AvailableSeats: r.AvailableSeats,
		Price:          domain.AmountFromCents(r.PriceCents),
	}
}

type bookingResponse struct {
	BookingID     string                   `json:"booking_id"`
	PassengerID   int64                    `json:"passenger_id"`
	RouteID       int64                    `json:"route_id"`
	Source        string                   `json:"source"`
	Destination   string                   `json:"destination"`
	DateOfJourney string                   `json:"date_of_journey"`
	SeatCount     int                      `json:"seat_count"`
	TotalPrice    float64                  `json:"total_price"`
	Status        string                   `json:"status"`
	Passengers    []domain.BookedPassenger `json:"passengers"`
	CreatedAt     string                   `json:"created_at"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	passengers := b.Passengers
	if passengers == nil {
		passengers = []domain.BookedPassenger{}
	}
	return bookingResponse{
		BookingID:     b.ID,
		PassengerID:   b.PassengerID,
		RouteID:       b.RouteID,
		Source:        b.Source,
		Destination:   b.Destination,
		DateOfJourney: b.DateOfJourney.Format(domain.DateLayout),
		SeatCount:     b.SeatCount,
		TotalPrice:    domain.AmountFromCents(b.TotalPriceCents),
		Status:        string(b.Status),
		Passengers:    passengers,
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
}

func toBookingResponses(bookings []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	return out
}

type receiptResponse struct {
	BookingID   string  `json:"booking_id"`
	PassengerID int64   `json:"passenger_id"`
	RouteID     int64   `json:"route_id"`
	SeatCount   int     `json:"seat_count"`
	TotalPrice  float64 `json:"total_price"`
	Status      string  `json:"status"`
}

func toReceiptResponse(r *domain.Receipt) receiptResponse {
	return receiptResponse{
		BookingID:   r.BookingID,
		PassengerID: r.PassengerID,
		RouteID:     r.RouteID,
		SeatCount:   r.SeatCount,
		TotalPrice:  domain.AmountFromCents(r.TotalPriceCents),
		Status:      string(r.Status),
	}
}

type statisticsResponse struct {
	TotalBookings     int64   `json:"total_bookings"`
	CancelledBookings int64   `json:"cancelled_bookings"`
	Revenue           float64 `json:"revenue"`
}
