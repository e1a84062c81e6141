package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mediqa/internal/config"
	httpapi "mediqa/internal/http"
	"mediqa/internal/kvstore"
	"mediqa/internal/repository"
	"mediqa/internal/service"

	_ "mediqa/docs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	if cfg.IsProduction() {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	} else {
		log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}

	// история поиска живёт в Redis, если он задан, иначе в памяти
	var history kvstore.Store = kvstore.NewMemory()
	if cfg.RedisURL != "" {
		var rcfg kvstore.Config
		if err := envconfig.Process("redis", &rcfg); err != nil {
			log.Fatal().Err(err).Msg("redis config failed")
		}
		client, err := rcfg.New()
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		history = kvstore.NewRedis(client)
	}

	store := repository.NewMemoryStore()
	pharmaciesRepo := repository.NewMemoryPharmacies(store)
	ordersRepo := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)

	revenueSvc := service.NewRevenueService(ordersRepo, pharmaciesRepo)
	catalogSvc := service.NewCatalogService(store, pharmaciesRepo)
	ordersSvc := service.NewOrderService(store, ordersRepo, revenueSvc, tx)
	searchSvc := service.NewSearchService(store, history, service.SearchOptions{
		CacheSize:    cfg.SearchCacheSize,
		CacheTTL:     cfg.SearchCacheTTL,
		HistoryLimit: cfg.HistoryLimit,
	})

	srv := httpapi.NewServer(catalogSvc, ordersSvc, searchSvc, revenueSvc)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
