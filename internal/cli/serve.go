package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"keebstore/internal/config"
	"keebstore/internal/database"
	"keebstore/internal/handler"
	"keebstore/internal/ordernum"
	"keebstore/internal/pricing"
	"keebstore/internal/promo"
	"keebstore/internal/repository"
	"keebstore/internal/router"
	"keebstore/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var shutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Time allowed for in-flight requests on shutdown")
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	logger.Info().Msg("starting keebstore API server")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	promos, err := promo.New(ctx, cfg.Promo, cfg.S3, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize promo validator: %w", err)
	}
	defer promos.Close()

	mux, err := newHandler(cfg, pool, promos, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newHandler assembles repositories, services and handlers into the routed
// HTTP handler.
func newHandler(cfg *config.Config, pool *pgxpool.Pool, promos promo.Validator, logger zerolog.Logger) (http.Handler, error) {
	loc, err := cfg.Order.Location()
	if err != nil {
		return nil, err
	}

	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	numbers := ordernum.NewGenerator(repository.NewSequenceRepository(logger), loc, logger)

	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, numbers, promos, service.OrderOptions{
		Pricing: pricing.Policy{
			ShippingFlatRate: cfg.Order.ShippingFlatRate,
			TaxRate:          cfg.Order.TaxRate,
		},
		PromoDiscount:     cfg.Promo.Discount,
		StrictTransitions: cfg.Order.StrictTransitions,
	}, logger)

	return router.New(router.Handlers{
		Product: handler.NewProductHandler(productService, logger),
		Order:   handler.NewOrderHandler(orderService, logger),
		Admin:   handler.NewAdminHandler(orderService, logger),
		Health:  handler.NewHealthHandler(pool, logger),
	}, logger), nil
}
