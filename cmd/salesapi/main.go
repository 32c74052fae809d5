// Command salesapi serves the sales tracking API.
//
// @title                       Sales API
// @version                     1.0
// @description                 Per-user sales tracking with payment schedules and commission.
// @BasePath                    /
// @securityDefinitions.apikey  TokenAuth
// @in                          header
// @name                        Authorization
// @description                 Bearer <token> or Token <token>
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/commission-dashboard/sales-api/internal/api"
	"github.com/commission-dashboard/sales-api/internal/core/service"
	"github.com/commission-dashboard/sales-api/internal/infrastructure/config"
	"github.com/commission-dashboard/sales-api/internal/infrastructure/store"
	"github.com/commission-dashboard/sales-api/internal/pkg/validation"
	"github.com/commission-dashboard/sales-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Service: "sales-api"})
		l := logger.Get()
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "sales-api",
	})

	st, err := store.Open(ctx, cfg, logger.For("store"))
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("failed to open store")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	issuer, err := service.NewTokenIssuer(cfg.Token.Format, cfg.Token.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token issuer")
	}

	validate := validation.New(validation.Policy{
		EnforceProductLines:  cfg.Sales.EnforceProductLines,
		EnforceDiscountRange: cfg.Sales.EnforceDiscountRange,
	})

	authService := service.NewAuthService(st.Users, st.Tokens, issuer, validate, cfg.Token.TTL, logger.For("auth"))
	if st.Locker != nil {
		authService.WithLocker(st.Locker)
	}
	saleService := service.NewSaleService(st.Sales, validate, logger.For("sales"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e := api.NewRouter(api.Dependencies{
		Auth:      authService,
		Sales:     saleService,
		Validator: validate,
		Logger:    logger.For("http"),
		Checks:    st.Checks,
		Registry:  reg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Store).Str("token_format", cfg.Token.Format).Msg("listening")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
