package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookRequest struct {
	Passengers []domain.BookedPassenger `json:"passengers"`
}

type cancelResponse struct {
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) book(c *gin.Context) {
	pid, ok := passengerID(c)
	if !ok {
		respondDomainError(c, domain.ErrForbidden)
		return
	}
	routeID, err := strconv.ParseInt(c.Param("routeId"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid route id")
		return
	}
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	receipt, err := h.service.Book(c.Request.Context(), booking.BookInput{
		PassengerID: pid,
		RouteID:     routeID,
		Passengers:  req.Passengers,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReceiptResponse(receipt))
}

// myBookings only ever returns the caller's bookings, also when looked up by id.
func (h *BookingHandler) myBookings(c *gin.Context) {
	pid, ok := passengerID(c)
	if !ok {
		respondDomainError(c, domain.ErrForbidden)
		return
	}
	filter := domain.BookingFilter{BookingID: c.Query("bookingId"), PassengerID: &pid}
	found, err := h.service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	mine := found[:0]
	for _, b := range found {
		if filter.Matches(&b) {
			mine = append(mine, b)
		}
	}
	c.JSON(http.StatusOK, toBookingResponses(mine))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	pid, ok := passengerID(c)
	if !ok {
		respondDomainError(c, domain.ErrForbidden)
		return
	}
	cancelled, err := h.service.Cancel(c.Request.Context(), pid, c.Param("bookingId"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	msg := "booking cancelled"
	if !cancelled {
		msg = "booking was already cancelled"
	}
	c.JSON(http.StatusOK, cancelResponse{Cancelled: cancelled, Message: msg})
}

func (h *BookingHandler) ticket(c *gin.Context) {
	pid, ok := passengerID(c)
	if !ok {
		respondDomainError(c, domain.ErrForbidden)
		return
	}
	bookingID := c.Param("bookingId")
	pdf, err := h.service.Ticket(c.Request.Context(), pid, bookingID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="ticket-`+bookingID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
