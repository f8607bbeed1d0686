package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/matikep/heladoswilson/internal/auth"
	"github.com/matikep/heladoswilson/internal/catalog"
	"github.com/matikep/heladoswilson/internal/config"
	"github.com/matikep/heladoswilson/internal/httpx"
	kafkax "github.com/matikep/heladoswilson/internal/kafka"
	"github.com/matikep/heladoswilson/internal/orders"
	"github.com/matikep/heladoswilson/internal/rtdb"
	"github.com/matikep/heladoswilson/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.Production)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Realtime store
	store := rtdb.New(cfg.RedisAddr)
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("store connect")
	}

	ledger := catalog.NewLedger(store)
	if err := ledger.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("catalog init")
	}
	go func() {
		if err := ledger.Watch(ctx); err != nil {
			logger.Error().Err(err).Msg("catalog watch stopped")
			cancel()
		}
	}()

	queue := orders.NewQueue(store, ledger)
	queue.Producer = cfg.ServiceName + "-admin"
	if err := queue.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("orders init")
	}
	go func() {
		if err := queue.Watch(ctx); err != nil {
			logger.Error().Err(err).Msg("orders watch stopped")
			cancel()
		}
	}()

	// Optional reporting feed
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 1024)
		prod.Start(ctx)
		queue.Events = prod
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Msg("order event feed enabled")
	}

	gate := auth.NewGate(cfg.JWTSecret, cfg.AdminEmails)
	if len(cfg.AdminEmails) == 0 {
		logger.Warn().Msg("ADMIN_EMAILS is empty: every sign-in will be rejected")
	}

	router := httpx.NewRouter()
	ah := &httpx.AdminHandler{Ledger: ledger, Queue: queue, Gate: gate}
	ah.Register(router)

	srv := &http.Server{Addr: cfg.AdminAddr, Handler: router}

	go func() {
		logger.Info().Str("addr", cfg.AdminAddr).Msg("admin listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()
	}
	cancel()
	if prod != nil {
		prod.WaitClosed()
	}
}
