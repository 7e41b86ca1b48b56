package stats

import (
	"context"
	"fmt"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/repository"
)

type StatsUseCase interface {
	Statistics(ctx context.Context) (*domain.Statistics, error)
}

type StatsService struct {
	bookings repository.BookingRepository
}

func NewStatsService(bookings repository.BookingRepository) *StatsService {
	return &StatsService{bookings: bookings}
}

// Statistics is recomputed from the ledger on every call. Revenue counts every
// booking that is not cancelled.
func (s *StatsService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	total, err := s.bookings.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	cancelled, err := s.bookings.CountByStatus(ctx, domain.BookingStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("count cancelled bookings: %w", err)
	}
	revenue, err := s.bookings.SumPriceWhereStatusNot(ctx, domain.BookingStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	return &domain.Statistics{TotalBookings: total, CancelledBookings: cancelled, RevenueCents: revenue}, nil
}

var _ StatsUseCase = (*StatsService)(nil)
