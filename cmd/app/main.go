package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/busbooking/api"
	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/bootstrap"
	"github.com/Domenick1991/busbooking/internal/cache"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/rabbitmq"
	"github.com/Domenick1991/busbooking/internal/service/auth"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/routes"
	"github.com/Domenick1991/busbooking/internal/service/stats"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config file (default $CONFIG_PATH or config.yaml)")
	pflag.Parse()

	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("open %s store: %v", cfg.Database.Driver, err)
	}
	defer store.Close()

	var (
		routeCache   routes.RouteCache
		bookingCache booking.Cache
		denyList     auth.DenyList
	)
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.RoutesCacheTTL)*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable, continuing without cache and with an in-process token deny-list: %v", err)
		} else {
			routeCache, bookingCache, denyList = redisCache, redisCache, redisCache
		}
	}

	var producer booking.Producer
	switch cfg.Events.Broker {
	case config.BrokerKafka:
		p := kafka.NewProducer(cfg.Kafka.Brokers)
		defer p.Close()
		producer = p
	case config.BrokerRabbitMQ:
		p, err := rabbitmq.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatalf("connect rabbitmq: %v", err)
		}
		defer p.Close()
		producer = p
	}

	services := api.Services{
		Auth: auth.NewAuthService(store.Passengers(), denyList, auth.Config{
			Secret:        cfg.Auth.JWTSecret,
			TokenTTL:      time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
			AdminEmail:    cfg.Admin.Email,
			AdminPassword: cfg.Admin.Password,
		}),
		Routes: routes.NewRouteService(store.Routes(), routeCache),
		Bookings: booking.NewBookingService(
			store,
			bookingCache,
			producer,
			cfg.Kafka.BookingEventsTopic,
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		),
		Stats: stats.NewStatsService(store.Bookings()),
	}

	if err := bootstrap.Run(ctx, cfg, services); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
