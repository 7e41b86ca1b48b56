package api

import (
	"net/http"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/auth"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/routes"
	"github.com/Domenick1991/busbooking/internal/service/stats"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Auth     auth.AuthUseCase
	Routes   routes.RouteUseCase
	Bookings booking.BookingUseCase
	Stats    stats.StatsUseCase
}

func NewRouter(svc Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logger(), CORS(allowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := NewAuthHandler(svc.Auth)
	routeHandler := NewRouteHandler(svc.Routes)
	bookingHandler := NewBookingHandler(svc.Bookings)
	adminHandler := NewAdminHandler(svc.Bookings, svc.Stats)
	authenticated := Authenticate(svc.Auth)

	api := router.Group("/api")
	api.POST("/auth/login", authHandler.login)
	api.POST("/auth/logout", authenticated, authHandler.logout)
	api.GET("/routes/search", routeHandler.search)
	api.POST("/routes", authenticated, RequireRole(domain.RoleAdmin), routeHandler.add)

	passengers := api.Group("/passengers")
	passengers.POST("/register", authHandler.register)
	passengers.GET("/routes/search", routeHandler.search)

	own := passengers.Group("", authenticated, RequireRole(domain.RolePassenger))
	own.POST("/routes/:routeId/book", bookingHandler.book)
	own.GET("/bookings", bookingHandler.myBookings)
	own.POST("/bookings/:bookingId/cancel", bookingHandler.cancel)
	own.GET("/bookings/:bookingId/ticket", bookingHandler.ticket)

	admin := api.Group("/admin", authenticated, RequireRole(domain.RoleAdmin))
	admin.GET("/bookings", adminHandler.listBookings)
	admin.GET("/statistics", adminHandler.statistics)

	return router
}
