package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/routes"
	"github.com/gin-gonic/gin"
)

type RouteHandler struct {
	service routes.RouteUseCase
}

type addRouteRequest struct {
	Source        string  `json:"source"`
	Destination   string  `json:"destination"`
	DateOfJourney string  `json:"date_of_journey"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   *string `json:"arrival_time"`
	TotalSeats    int     `json:"total_seats"`
	Price         float64 `json:"price"`
}

func NewRouteHandler(service routes.RouteUseCase) *RouteHandler {
	return &RouteHandler{service: service}
}

func (h *RouteHandler) search(c *gin.Context) {
	date, err := domain.ParseDate(c.Query("date"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	found, err := h.service.Search(c.Request.Context(), c.Query("source"), c.Query("destination"), date)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	out := make([]routeResponse, 0, len(found))
	for _, r := range found {
		out = append(out, toRouteResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (h *RouteHandler) add(c *gin.Context) {
	var req addRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	var date time.Time
	if strings.TrimSpace(req.DateOfJourney) != "" {
		parsed, err := domain.ParseDate(req.DateOfJourney)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		date = parsed
	}

	route, err := h.service.AddRoute(c.Request.Context(), routes.AddRouteInput{
		Source:        req.Source,
		Destination:   req.Destination,
		Date:          date,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		TotalSeats:    req.TotalSeats,
		Price:         req.Price,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRouteResponse(*route))
}
