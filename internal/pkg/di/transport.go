package di

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ciricc/bridgetx-store/config"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/accountindex"
	grpchandlers "github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/transport/grpc"
	httphandlers "github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/transport/http"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/txstore"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func NewHTTPHandlers(i *do.Injector) (*httphandlers.Handlers, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	logger, err := do.Invoke[*zerolog.Logger](i)
	if err != nil {
		return nil, fmt.Errorf("invoke logger error: %w", err)
	}

	store, err := do.Invoke[*txstore.Store](i)
	if err != nil {
		return nil, fmt.Errorf("invoke tx store error: %w", err)
	}

	index, err := do.Invoke[*accountindex.Index](i)
	if err != nil {
		return nil, fmt.Errorf("invoke account index error: %w", err)
	}

	return httphandlers.NewHandlers(store, index, &httphandlers.HandlersOptions{
		Logger:        logger,
		ScanRateLimit: cfg.API.ScanRateLimit,
		ScanBurst:     cfg.API.ScanBurst,
	}), nil
}

func NewHTTPServer(i *do.Injector) (*http.Server, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	handlers, err := do.Invoke[*httphandlers.Handlers](i)
	if err != nil {
		return nil, fmt.Errorf("invoke http handlers error: %w", err)
	}

	return &http.Server{
		Addr:              cfg.API.HTTP.Address,
		Handler:           handlers.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func NewHealthHandlers(i *do.Injector) (*grpchandlers.HealthHandlers, error) {
	store, err := do.Invoke[*txstore.Store](i)
	if err != nil {
		return nil, fmt.Errorf("invoke tx store error: %w", err)
	}

	logger, err := do.Invoke[*zerolog.Logger](i)
	if err != nil {
		return nil, fmt.Errorf("invoke logger error: %w", err)
	}

	return grpchandlers.NewHealthHandlers(store, logger), nil
}

func NewGRPCServer(i *do.Injector) (*grpc.Server, error) {
	healthHandlers, err := do.Invoke[*grpchandlers.HealthHandlers](i)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke health grpc handlers: %w", err)
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)

	grpc_health_v1.RegisterHealthServer(server, healthHandlers)

	reflection.Register(server)

	return server, nil
}
