package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/stats"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	bookings booking.BookingUseCase
	stats    stats.StatsUseCase
}

func NewAdminHandler(bookings booking.BookingUseCase, statsSvc stats.StatsUseCase) *AdminHandler {
	return &AdminHandler{bookings: bookings, stats: statsSvc}
}

func (h *AdminHandler) listBookings(c *gin.Context) {
	filter := domain.BookingFilter{BookingID: strings.TrimSpace(c.Query("bookingId"))}
	if raw := c.Query("date"); raw != "" {
		date, err := domain.ParseDate(raw)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		filter.Date = &date
	}
	if raw := c.Query("passengerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "invalid passengerId")
			return
		}
		filter.PassengerID = &id
	}

	found, err := h.bookings.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(found))
}

func (h *AdminHandler) statistics(c *gin.Context) {
	s, err := h.stats.Statistics(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, statisticsResponse{
		TotalBookings:     s.TotalBookings,
		CancelledBookings: s.CancelledBookings,
		Revenue:           domain.AmountFromCents(s.RevenueCents),
	})
}
