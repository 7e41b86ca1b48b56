package routes

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/repository"
)

type RouteUseCase interface {
	Search(ctx context.Context, source, destination string, date time.Time) ([]domain.Route, error)
	AddRoute(ctx context.Context, input AddRouteInput) (*domain.Route, error)
	GetByID(ctx context.Context, id int64) (*domain.Route, error)
}

type RouteCache interface {
	// GetRoutes returns nil routes on a miss, plus the generation SetRoutes must be given.
	GetRoutes(ctx context.Context, source, destination string, date time.Time) ([]domain.Route, int64, error)
	SetRoutes(ctx context.Context, source, destination string, date time.Time, gen int64, routes []domain.Route) error
	InvalidateRoutes(ctx context.Context, source, destination string, date time.Time) error
}

type RouteService struct {
	repo  repository.RouteRepository
	cache RouteCache
}

type AddRouteInput struct {
	Source        string
	Destination   string
	Date          time.Time
	DepartureTime string
	ArrivalTime   *string
	TotalSeats    int
	Price         float64
}

func NewRouteService(repo repository.RouteRepository, cache RouteCache) *RouteService {
	return &RouteService{repo: repo, cache: cache}
}

// Search serves from the cache when it can. Cache failures fall through to storage.
func (s *RouteService) Search(ctx context.Context, source, destination string, date time.Time) ([]domain.Route, error) {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(destination) == "" {
		return nil, domain.ValidationError{Msg: "source and destination are required"}
	}
	if date.IsZero() {
		return nil, domain.ValidationError{Field: "date", Msg: "is required"}
	}

	// the generation is read before storage so a booking that invalidates in
	// between makes our write stale
	var gen int64
	cacheOK := s.cache != nil
	if cacheOK {
		cached, g, err := s.cache.GetRoutes(ctx, source, destination, date)
		switch {
		case err != nil:
			log.Printf("WARNING: route cache read failed err=%v", err)
			cacheOK = false
		case cached != nil:
			return cached, nil
		default:
			gen = g
		}
	}

	routes, err := s.repo.Search(ctx, strings.TrimSpace(source), strings.TrimSpace(destination), date)
	if err != nil {
		return nil, err
	}
	if cacheOK {
		if err := s.cache.SetRoutes(ctx, source, destination, date, gen, routes); err != nil {
			log.Printf("WARNING: route cache write failed err=%v", err)
		}
	}
	return routes, nil
}

func (s *RouteService) AddRoute(ctx context.Context, input AddRouteInput) (*domain.Route, error) {
	route := &domain.Route{
		Source:        strings.TrimSpace(input.Source),
		Destination:   strings.TrimSpace(input.Destination),
		DateOfJourney: domain.NormalizeDate(input.Date),
		DepartureTime: strings.TrimSpace(input.DepartureTime),
		TotalSeats:    input.TotalSeats,
		PriceCents:    domain.CentsFromAmount(input.Price),
	}
	if input.ArrivalTime != nil && strings.TrimSpace(*input.ArrivalTime) != "" {
		arrival := strings.TrimSpace(*input.ArrivalTime)
		route.ArrivalTime = &arrival
	}
	if err := route.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, route); err != nil {
		return nil, err
	}
	log.Printf("route added route_id=%d source=%s destination=%s date=%s seats=%d",
		route.ID, route.Source, route.Destination, route.DateOfJourney.Format(domain.DateLayout), route.TotalSeats)

	if s.cache != nil {
		if err := s.cache.InvalidateRoutes(ctx, route.Source, route.Destination, route.DateOfJourney); err != nil {
			log.Printf("WARNING: route cache invalidation failed route_id=%d err=%v", route.ID, err)
		}
	}
	return route, nil
}

func (s *RouteService) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	return s.repo.GetByID(ctx, id)
}

var _ RouteUseCase = (*RouteService)(nil)
