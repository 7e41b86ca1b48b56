package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) Valid() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCancelled
}

// CanTransition reports whether a booking may move from s to next.
// CONFIRMED -> CANCELLED is the only legal transition.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	return s == BookingStatusConfirmed && next == BookingStatusCancelled
}

type BookedPassenger struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

func (p BookedPassenger) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ValidationError{Field: "name", Msg: "no field should be empty"}
	}
	if p.Age <= 0 {
		return ValidationError{Field: "age", Msg: "must be positive"}
	}
	if strings.TrimSpace(p.Gender) == "" {
		return ValidationError{Field: "gender", Msg: "no field should be empty"}
	}
	return nil
}

type Booking struct {
	ID              string
	PassengerID     int64
	RouteID         int64
	Source          string
	Destination     string
	DateOfJourney   time.Time
	SeatCount       int
	TotalPriceCents int64
	Status          BookingStatus
	Passengers      []BookedPassenger
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizeManifest returns a copy of passengers with names and genders trimmed.
func NormalizeManifest(passengers []BookedPassenger) []BookedPassenger {
	out := make([]BookedPassenger, len(passengers))
	for i, p := range passengers {
		out[i] = BookedPassenger{Name: strings.TrimSpace(p.Name), Age: p.Age, Gender: strings.TrimSpace(p.Gender)}
	}
	return out
}

// ValidateManifest checks the passenger manifest independently of the rest of the booking.
func ValidateManifest(passengers []BookedPassenger) error {
	if len(passengers) == 0 {
		return ValidationError{Field: "passengers", Msg: "no passengers added"}
	}
	for _, p := range passengers {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (b *Booking) Validate() error {
	if err := ValidateManifest(b.Passengers); err != nil {
		return err
	}
	if b.SeatCount != len(b.Passengers) {
		return ValidationError{Field: "seat_count", Msg: "must match the passenger count"}
	}
	if !b.Status.Valid() {
		return ValidationError{Field: "status", Msg: "unknown status " + string(b.Status)}
	}
	return nil
}

type BookingFilter struct {
	BookingID   string
	Date        *time.Time
	PassengerID *int64
}

// Matches applies the date and passenger filters. BookingID is handled by the caller as a lookup.
func (f BookingFilter) Matches(b *Booking) bool {
	if f.Date != nil && !NormalizeDate(*f.Date).Equal(NormalizeDate(b.DateOfJourney)) {
		return false
	}
	if f.PassengerID != nil && *f.PassengerID != b.PassengerID {
		return false
	}
	return true
}

type Receipt struct {
	BookingID       string
	PassengerID     int64
	RouteID         int64
	SeatCount       int
	TotalPriceCents int64
	Status          BookingStatus
}

type Statistics struct {
	TotalBookings     int64
	CancelledBookings int64
	RevenueCents      int64
}
