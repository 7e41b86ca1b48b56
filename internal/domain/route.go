package domain

import (
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type Route struct {
	ID             int64
	Source         string
	Destination    string
	DateOfJourney  time.Time
	DepartureTime  string
	ArrivalTime    *string
	TotalSeats     int
	AvailableSeats int
	PriceCents     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the fields an admin must supply when adding a route.
func (r *Route) Validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return ValidationError{Field: "source", Msg: "is required"}
	}
	if strings.TrimSpace(r.Destination) == "" {
		return ValidationError{Field: "destination", Msg: "is required"}
	}
	if r.DateOfJourney.IsZero() {
		return ValidationError{Field: "date_of_journey", Msg: "is required"}
	}
	if strings.TrimSpace(r.DepartureTime) == "" {
		return ValidationError{Field: "departure_time", Msg: "is required"}
	}
	if _, err := time.Parse(ClockLayout, r.DepartureTime); err != nil {
		return ValidationError{Field: "departure_time", Msg: "must be HH:MM", Err: err}
	}
	if r.ArrivalTime != nil {
		if _, err := time.Parse(ClockLayout, *r.ArrivalTime); err != nil {
			return ValidationError{Field: "arrival_time", Msg: "must be HH:MM", Err: err}
		}
	}
	if r.TotalSeats <= 0 {
		return ValidationError{Field: "total_seats", Msg: "must be positive"}
	}
	if r.PriceCents <= 0 {
		return ValidationError{Field: "price", Msg: "must be positive"}
	}
	return nil
}

// NormalizeDate drops the clock part so dates compare by calendar day.
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ValidationError{Field: "date", Msg: "must be YYYY-MM-DD", Err: err}
	}
	return t, nil
}
