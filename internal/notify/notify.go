// Package notify turns booking events into passenger notifications.
package notify

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/ticket"
)

// PassengerLookup resolves where a notification goes.
type PassengerLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Passenger, error)
}

type Sender struct {
	out        *log.Logger
	passengers PassengerLookup
}

// NewSender writes notifications to w. passengers may be nil, in which case
// notifications are addressed by passenger id only.
func NewSender(w io.Writer, passengers PassengerLookup) *Sender {
	return &Sender{out: log.New(w, "", log.LstdFlags|log.LUTC), passengers: passengers}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	recipient := fmt.Sprintf("passenger:%d", event.PassengerID)
	if s.passengers != nil {
		p, err := s.passengers.GetByID(ctx, event.PassengerID)
		switch {
		case err == nil:
			recipient = p.Email
		case domain.IsNotFound(err):
			log.Printf("notify: passenger_id=%d not found, booking_id=%s", event.PassengerID, event.BookingID)
		default:
			return err
		}
	}

	s.out.Printf("to=%s subject=%q booking_id=%s route=%s->%s date=%s seats=%d total=%s",
		recipient, Subject(event.Type), event.BookingID, event.Source, event.Destination,
		event.DateOfJourney, event.SeatCount, ticket.FormatAmount(event.TotalPriceCents))
	return nil
}

func Subject(eventType string) string {
	switch eventType {
	case kafka.EventBookingConfirmed:
		return "Your bus booking is confirmed"
	case kafka.EventBookingCancelled:
		return "Your bus booking was cancelled"
	default:
		return "Booking update"
	}
}
