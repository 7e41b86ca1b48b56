// Package ticket renders booking e-tickets as PDF documents.
package ticket

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/phpdave11/gofpdf"
)

// Render builds a one-page e-ticket. route may be nil when it can no longer be loaded;
// the booking carries enough denormalized data to still print the trip.
func Render(b *domain.Booking, route *domain.Route) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+b.ID, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BUS E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Booking ID  : " + b.ID,
		"Status      : " + string(b.Status),
		"Route       : " + b.Source + " -> " + b.Destination,
		"Date        : " + b.DateOfJourney.Format(domain.DateLayout),
	}
	if route != nil {
		lines = append(lines, "Departure   : "+route.DepartureTime)
		if route.ArrivalTime != nil {
			lines = append(lines, "Arrival     : "+*route.ArrivalTime)
		}
	}
	lines = append(lines,
		fmt.Sprintf("Seats       : %d", b.SeatCount),
		"Total price : "+FormatAmount(b.TotalPriceCents),
	)
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Passengers")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for i, p := range b.Passengers {
		pdf.Cell(0, 6, fmt.Sprintf("%d) %s, %d, %s", i+1, p.Name, p.Age, strings.ToUpper(p.Gender)))
		pdf.Ln(6)
	}

	if b.Status == domain.BookingStatusCancelled {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, "This booking was cancelled and is not valid for travel.", "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket: %w", err)
	}
	return buf.Bytes(), nil
}

func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
