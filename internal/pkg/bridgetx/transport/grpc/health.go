package grpchandlers

import (
	"context"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name clients pass in HealthCheckRequest to ask about the record store.
const ServiceName = "bridgetx.Store"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers reports SERVING while the underlying store answers pings.
type HealthHandlers struct {
	grpc_health_v1.UnimplementedHealthServer

	store  Pinger
	logger *zerolog.Logger
}

func NewHealthHandlers(store Pinger, logger *zerolog.Logger) *HealthHandlers {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &HealthHandlers{
		UnimplementedHealthServer: grpc_health_v1.UnimplementedHealthServer{},

		store:  store,
		logger: logger,
	}
}

func (h *HealthHandlers) Check(
	ctx context.Context,
	req *grpc_health_v1.HealthCheckRequest,
) (*grpc_health_v1.HealthCheckResponse, error) {
	if service := req.GetService(); service != "" && service != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", service)
	}

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("store ping failed")

		return &grpc_health_v1.HealthCheckResponse{
			Status: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		}, nil
	}

	return &grpc_health_v1.HealthCheckResponse{
		Status: grpc_health_v1.HealthCheckResponse_SERVING,
	}, nil
}
