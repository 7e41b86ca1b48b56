package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/bootstrap"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/notify"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config file (default $CONFIG_PATH or config.yaml)")
	pflag.Parse()

	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Events.Broker != config.BrokerKafka {
		log.Fatalf("worker needs events.broker=kafka, got %q", cfg.Events.Broker)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var passengers notify.PassengerLookup
	if cfg.Database.Driver != config.DriverMemory {
		store, err := bootstrap.OpenStore(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("open %s store: %v", cfg.Database.Driver, err)
		}
		defer store.Close()
		passengers = store.Passengers()
	}

	var out io.Writer = os.Stdout
	if cfg.Worker.NotificationLog != "" {
		f, err := os.OpenFile(cfg.Worker.NotificationLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("open notification log: %v", err)
		}
		defer f.Close()
		out = f
	}

	topic := cfg.Kafka.NotificationsTopic
	if topic == "" {
		topic = cfg.Kafka.BookingEventsTopic
	}
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic)
	defer consumer.Close()

	sender := notify.NewSender(out, passengers)
	log.Printf("worker consuming topic=%s group=%s", topic, cfg.Kafka.GroupID)

	if err := consumer.ConsumeBookingEvents(ctx, sender.Send); err != nil && ctx.Err() == nil {
		log.Fatalf("consumer stopped: %v", err)
	}
	log.Printf("worker stopped")
}
