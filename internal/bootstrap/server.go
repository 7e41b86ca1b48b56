package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/busbooking/api"
	"github.com/Domenick1991/busbooking/config"
	reservationapi "github.com/Domenick1991/busbooking/internal/api/reservation_service_api"
	"google.golang.org/grpc"
)

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
}

// Run starts the gRPC and HTTP servers and blocks until ctx is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, svc api.Services) error {
	s := newServers(cfg, svc)

	errCh := make(chan error, 2)

	if cfg.GRPC.Address != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Address)
		if err != nil {
			return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
		}
		log.Printf("gRPC listening on %s", cfg.GRPC.Address)
		go func() { errCh <- s.grpcServer.Serve(lis) }()
	}

	log.Printf("HTTP listening on %s", cfg.HTTP.Address)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServers(cfg *config.Config, svc api.Services) *Servers {
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(reservationapi.UnaryLogger()))
	reservationapi.RegisterReservationServiceServer(grpcSrv, reservationapi.NewServer(svc.Auth, svc.Routes, svc.Bookings, svc.Stats))

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewRouter(svc, cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: httpSrv,
	}
}
