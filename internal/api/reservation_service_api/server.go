package reservation_service_api

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/auth"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/routes"
	"github.com/Domenick1991/busbooking/internal/service/stats"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server exposes the reservation engine over gRPC.
type Server struct {
	auth     auth.AuthUseCase
	routes   routes.RouteUseCase
	bookings booking.BookingUseCase
	stats    stats.StatsUseCase
}

func NewServer(authSvc auth.AuthUseCase, routeSvc routes.RouteUseCase, bookingSvc booking.BookingUseCase, statsSvc stats.StatsUseCase) *Server {
	return &Server{auth: authSvc, routes: routeSvc, bookings: bookingSvc, stats: statsSvc}
}

func (s *Server) SearchRoutes(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	date, err := domain.ParseDate(stringField(in, "date"))
	if err != nil {
		return nil, toStatus(err)
	}
	found, err := s.routes.Search(ctx, stringField(in, "source"), stringField(in, "destination"), date)
	if err != nil {
		return nil, toStatus(err)
	}
	list := make([]any, 0, len(found))
	for _, r := range found {
		list = append(list, routeFields(r))
	}
	return newStruct(map[string]any{"routes": list})
}

func (s *Server) Book(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pid, err := s.passenger(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := s.bookings.Book(ctx, booking.BookInput{
		PassengerID: pid,
		RouteID:     int64(in.GetFields()["route_id"].GetNumberValue()),
		Passengers:  manifestFrom(in),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{
		"booking_id":   receipt.BookingID,
		"passenger_id": receipt.PassengerID,
		"route_id":     receipt.RouteID,
		"seat_count":   receipt.SeatCount,
		"total_price":  domain.AmountFromCents(receipt.TotalPriceCents),
		"status":       string(receipt.Status),
	})
}

func (s *Server) Cancel(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pid, err := s.passenger(ctx)
	if err != nil {
		return nil, err
	}
	cancelled, err := s.bookings.Cancel(ctx, pid, stringField(in, "booking_id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"cancelled": cancelled})
}

// ListBookings pins passengers to their own bookings; admins may filter freely.
func (s *Server) ListBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	claims, err := s.claims(ctx)
	if err != nil {
		return nil, err
	}

	filter := domain.BookingFilter{BookingID: stringField(in, "booking_id")}
	if raw := stringField(in, "date"); raw != "" {
		date, err := domain.ParseDate(raw)
		if err != nil {
			return nil, toStatus(err)
		}
		filter.Date = &date
	}
	if v, ok := in.GetFields()["passenger_id"]; ok {
		id := int64(v.GetNumberValue())
		filter.PassengerID = &id
	}
	pid, isPassenger := claims.PassengerID()
	if isPassenger {
		filter.PassengerID = &pid
	} else if claims.Role != domain.RoleAdmin {
		return nil, toStatus(domain.ErrForbidden)
	}

	found, err := s.bookings.ListBookings(ctx, filter)
	if err != nil {
		return nil, toStatus(err)
	}
	list := make([]any, 0, len(found))
	for _, b := range found {
		// a booking id lookup ignores the other filters; passengers still only see their own
		if isPassenger && b.PassengerID != pid {
			continue
		}
		if filter.BookingID == "" && !filter.Matches(&b) {
			continue
		}
		list = append(list, bookingFields(b))
	}
	return newStruct(map[string]any{"bookings": list})
}

func (s *Server) Statistics(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	claims, err := s.claims(ctx)
	if err != nil {
		return nil, err
	}
	if claims.Role != domain.RoleAdmin {
		return nil, toStatus(domain.ErrForbidden)
	}
	st, err := s.stats.Statistics(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{
		"total_bookings":     st.TotalBookings,
		"cancelled_bookings": st.CancelledBookings,
		"revenue":            domain.AmountFromCents(st.RevenueCents),
	})
}

func (s *Server) claims(ctx context.Context) (*auth.Claims, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	var token string
	if values := md.Get("authorization"); len(values) > 0 {
		token = strings.TrimSpace(strings.TrimPrefix(values[0], "Bearer "))
	}
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}
	claims, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}
	return claims, nil
}

func (s *Server) passenger(ctx context.Context) (int64, error) {
	claims, err := s.claims(ctx)
	if err != nil {
		return 0, err
	}
	pid, ok := claims.PassengerID()
	if !ok {
		return 0, toStatus(domain.ErrForbidden)
	}
	return pid, nil
}

// UnaryLogger logs one line per call.
func UnaryLogger() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		log.Printf("[GRPC] method=%s code=%s latency=%s", info.FullMethod, status.Code(err), time.Since(start))
		return resp, err
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case domain.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case domain.IsSeatNotAvailable(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.IsConflict(err):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		log.Printf("[GRPC] internal error: %v", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func stringField(in *structpb.Struct, key string) string {
	return strings.TrimSpace(in.GetFields()[key].GetStringValue())
}

func manifestFrom(in *structpb.Struct) []domain.BookedPassenger {
	values := in.GetFields()["passengers"].GetListValue().GetValues()
	out := make([]domain.BookedPassenger, 0, len(values))
	for _, v := range values {
		p := v.GetStructValue()
		out = append(out, domain.BookedPassenger{
			Name:   p.GetFields()["name"].GetStringValue(),
			Age:    int(p.GetFields()["age"].GetNumberValue()),
			Gender: p.GetFields()["gender"].GetStringValue(),
		})
	}
	return out
}

func routeFields(r domain.Route) map[string]any {
	fields := map[string]any{
		"id":              r.ID,
		"source":          r.Source,
		"destination":     r.Destination,
		"date_of_journey": r.DateOfJourney.Format(domain.DateLayout),
		"departure_time":  r.DepartureTime,
		"total_seats":     r.TotalSeats,
		"available_seats": r.AvailableSeats,
		"price":           domain.AmountFromCents(r.PriceCents),
	}
	if r.ArrivalTime != nil {
		fields["arrival_time"] = *r.ArrivalTime
	}
	return fields
}

func bookingFields(b domain.Booking) map[string]any {
	passengers := make([]any, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		passengers = append(passengers, map[string]any{"name": p.Name, "age": p.Age, "gender": p.Gender})
	}
	return map[string]any{
		"booking_id":      b.ID,
		"passenger_id":    b.PassengerID,
		"route_id":        b.RouteID,
		"source":          b.Source,
		"destination":     b.Destination,
		"date_of_journey": b.DateOfJourney.Format(domain.DateLayout),
		"seat_count":      b.SeatCount,
		"total_price":     domain.AmountFromCents(b.TotalPriceCents),
		"status":          string(b.Status),
		"passengers":      passengers,
	}
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

var _ ReservationServiceServer = (*Server)(nil)
