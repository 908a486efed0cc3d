package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ciricc/bridgetx-store/config"
	"github.com/ciricc/bridgetx-store/internal/pkg/app"
	"github.com/ciricc/bridgetx-store/internal/pkg/shutdown"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/uptrace/uptrace-go/uptrace"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

func main() {
	container := do.New()

	app.ProvideCommonDeps(container)
	app.ProvideStorageDeps(container)
	app.ProvideTxStoreDeps(container)
	app.ProvideTransportDeps(container)

	logger, err := do.Invoke[*zerolog.Logger](container)
	if err != nil {
		panic(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := initUptrace(container); err != nil {
		logger.Fatal().Err(err).Msg("failed to init uptrace tracing")
	}

	storage, err := do.Invoke[*shutdown.Shutdowner](container)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to invoke shutdowner")
	}

	httpServer, err := runHTTPServer(container, cancel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to run http server")
	}

	grpcServer, err := runGRPCServer(container, cancel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to run grpc server")
	}

	<-ctx.Done()

	logger.Info().Msg("shutting down")

	err = shutdown.Sequence(
		shutdown.NewShutdowner(
			shutdown.NewShutdownFromHTTPServer(httpServer, shutdownTimeout),
			shutdown.NewShutdownFromGracefulStopper(grpcServer),
		),
		storage,
		shutdown.Func(func() error {
			return uptrace.Shutdown(context.Background())
		}),
	).Shutdown()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to shutdown the service")
	}
}

func initUptrace(container *do.Injector) error {
	cfg, err := do.Invoke[*config.Config](container)
	if err != nil {
		return fmt.Errorf("failed to invoke the configuration: %w", err)
	}

	logger, err := do.Invoke[*zerolog.Logger](container)
	if err != nil {
		return fmt.Errorf("failed to invoke the logger: %w", err)
	}

	if cfg.Uptrace.DSN == "" {
		logger.Warn().Msg("uptrace DSN not configured, tracing disabled")

		return nil
	}

	if cfg.Storage.Driver == config.StorageDriverRedis {
		redisClient, err := do.Invoke[*redis.Client](container)
		if err != nil {
			return fmt.Errorf("failed to invoke redis client: %w", err)
		}

		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			return fmt.Errorf("failed to init uptrace for redis client: %w", err)
		}

		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			return fmt.Errorf("failed to init uptrace for redis client: %w", err)
		}
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.Uptrace.DSN),
		uptrace.WithServiceName(cfg.Name),
		uptrace.WithServiceVersion(cfg.Version),
		uptrace.WithDeploymentEnvironment(cfg.Environment),
	)

	return nil
}

func runHTTPServer(container *do.Injector, stop context.CancelFunc) (*http.Server, error) {
	logger, err := do.Invoke[*zerolog.Logger](container)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke logger: %w", err)
	}

	server, err := do.Invoke[*http.Server](container)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke http server: %w", err)
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen http server: %w", err)
	}

	go func() {
		logger.Info().Str("address", server.Addr).Msg("http server started")

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	return server, nil
}

func runGRPCServer(container *do.Injector, stop context.CancelFunc) (*grpc.Server, error) {
	logger, err := do.Invoke[*zerolog.Logger](container)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke logger: %w", err)
	}

	cfg, err := do.Invoke[*config.Config](container)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke configuration: %w", err)
	}

	server, err := do.Invoke[*grpc.Server](container)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke grpc server: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.API.GRPC.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen grpc server: %w", err)
	}

	go func() {
		logger.Info().Str("address", cfg.API.GRPC.Address).Msg("grpc server started")

		if err := server.Serve(ln); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
			stop()
		}
	}()

	return server, nil
}
