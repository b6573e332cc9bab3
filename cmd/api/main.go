package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mraditya/go-bengkel-commerce/internal/booking"
	"github.com/mraditya/go-bengkel-commerce/internal/cart"
	"github.com/mraditya/go-bengkel-commerce/internal/catalog"
	"github.com/mraditya/go-bengkel-commerce/internal/checkout"
	"github.com/mraditya/go-bengkel-commerce/internal/config"
	"github.com/mraditya/go-bengkel-commerce/internal/httpx"
	kafkax "github.com/mraditya/go-bengkel-commerce/internal/kafka"
	"github.com/mraditya/go-bengkel-commerce/internal/logx"
	"github.com/mraditya/go-bengkel-commerce/internal/orders"
	"github.com/mraditya/go-bengkel-commerce/internal/postgres"
	"github.com/mraditya/go-bengkel-commerce/internal/redisx"
	"github.com/mraditya/go-bengkel-commerce/internal/stock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logx.New(cfg.AppEnv, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB + migrasi
	if err := postgres.Migrate(cfg.PostgresDSN, cfg.MigrationsDir); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, satu per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	pCreated.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024, log)
	pCancelled.Start(ctx)
	pConfirmed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderConfirmed, 1024, log)
	pConfirmed.Start(ctx)
	pFailed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderFailed, 1024, log)
	pFailed.Start(ctx)
	pBooking := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicBookingCreated, 1024, log)
	pBooking.Start(ctx)
	producers := []*kafkax.Producer{pCreated, pCancelled, pConfirmed, pFailed, pBooking}

	// Stores & engines
	variantStore := &catalog.Store{DB: db}
	cartStore := &cart.PgStore{DB: db}
	orderStore := &orders.Store{DB: db}
	bookingStore := &booking.PgStore{DB: db}
	pool := &stock.Pool{DB: db, Log: log}

	cartSvc := &cart.Service{Store: cartStore, Variants: variantStore}
	engine := &checkout.Engine{
		Carts:       cartStore,
		Variants:    variantStore,
		Orders:      orderStore,
		Pool:        pool,
		Producer:    pCreated,
		ServiceName: cfg.ServiceName,
		Log:         log,
	}
	lifecycle := &orders.Lifecycle{
		Store:             orderStore,
		ProducerConfirmed: pConfirmed,
		ProducerCancelled: pCancelled,
		ProducerFailed:    pFailed,
		ServiceName:       cfg.ServiceName,
		Log:               log,
	}
	bookingEngine := &booking.Engine{
		Store:       bookingStore,
		Window:      cfg.BookingWindow,
		Producer:    pBooking,
		ServiceName: cfg.ServiceName,
		Log:         log,
	}

	router := httpx.NewRouter()
	(&httpx.CartHandler{Svc: cartSvc}).Register(router)
	(&httpx.OrdersHandler{Engine: engine, Lifecycle: lifecycle, Orders: orderStore, Variants: variantStore, Redis: rdb}).Register(router)
	(&httpx.BookingHandler{Engine: bookingEngine, Redis: rdb}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range producers {
		p.Close() // tutup inbox -> flush & close writer
	}
	for _, p := range producers {
		p.WaitClosed()
	}
	cancel()
}
