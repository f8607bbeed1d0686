package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/matikep/heladoswilson/internal/catalog"
	"github.com/matikep/heladoswilson/internal/config"
	"github.com/matikep/heladoswilson/internal/httpx"
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

	// Catalog mirror (seeds defaults on first run)
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

	// Order queue mirror
	queue := orders.NewQueue(store, ledger)
	if err := queue.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("orders init")
	}
	go func() {
		if err := queue.Watch(ctx); err != nil {
			logger.Error().Err(err).Msg("orders watch stopped")
			cancel()
		}
	}()

	router := httpx.NewRouter()
	sh := &httpx.ShopHandler{
		Ledger:         ledger,
		Queue:          queue,
		Store:          store,
		WhatsAppNumber: cfg.WhatsAppNumber,
	}
	sh.Register(router)

	srv := &http.Server{Addr: cfg.ShopAddr, Handler: router}

	go func() {
		logger.Info().Str("addr", cfg.ShopAddr).Msg("storefront listening")
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
	cancel() // tear down subscriptions
}
