package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mraditya/go-bengkel-commerce/internal/config"
	kafkax "github.com/mraditya/go-bengkel-commerce/internal/kafka"
	"github.com/mraditya/go-bengkel-commerce/internal/logx"
	"github.com/mraditya/go-bengkel-commerce/internal/orders"
	"github.com/mraditya/go-bengkel-commerce/internal/payments"
	"github.com/mraditya/go-bengkel-commerce/internal/postgres"
	"github.com/mraditya/go-bengkel-commerce/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log, err := logx.New(cfg.AppEnv, cfg.ServiceName+"-payments")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pConfirmed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderConfirmed, 1024, log)
	pConfirmed.Start(ctx)
	pFailed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderFailed, 1024, log)
	pFailed.Start(ctx)

	lifecycle := &orders.Lifecycle{
		Store:             &orders.Store{DB: db},
		ProducerConfirmed: pConfirmed,
		ProducerFailed:    pFailed,
		ServiceName:       cfg.ServiceName + "-payments",
		Log:               log,
	}
	svc := &payments.Service{
		Lifecycle:   lifecycle,
		Dedup:       &payments.RedisDedup{Client: rdb},
		ServiceName: cfg.ServiceName + "-payments",
		Log:         log,
	}

	group := getenv("PAYMENTS_GROUP", "payments-svc")
	workers := mustAtoi(os.Getenv("PAYMENTS_WORKERS"), 8)

	// Consumer pakai context sendiri supaya bisa dihentikan (dan ditunggu)
	// duluan; handler yang masih jalan boleh publish sampai selesai, baru
	// producer ditutup.
	consCtx, stopConsumers := context.WithCancel(ctx)
	defer stopConsumers()
	var consWG sync.WaitGroup

	// dua topic callback, satu handler
	for _, topic := range []string{orders.TopicPaymentAuthorized, orders.TopicPaymentFailed} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers, log)
		consWG.Add(1)
		go func(topic string) {
			defer consWG.Done()
			log.Info("payments consumer started", zap.String("topic", topic), zap.Int("workers", workers))
			if err := cons.Start(consCtx, svc.HandlePaymentEvent); err != nil {
				log.Error("consumer exit", zap.String("topic", topic), zap.Error(err))
				cancel()
			}
		}(topic)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumers...")
	stopConsumers()
	consWG.Wait() // tidak ada handler yang bisa publish lagi

	pConfirmed.Close()
	pFailed.Close()
	pConfirmed.WaitClosed()
	pFailed.WaitClosed()
	cancel()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
