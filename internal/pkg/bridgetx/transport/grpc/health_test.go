package grpchandlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func TestHealthHandlers_Check(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		ping       error
		service    string
		wantStatus grpc_health_v1.HealthCheckResponse_ServingStatus
		wantCode   codes.Code
	}{
		"serving": {
			wantStatus: grpc_health_v1.HealthCheckResponse_SERVING,
		},
		"serving by name": {
			service:    ServiceName,
			wantStatus: grpc_health_v1.HealthCheckResponse_SERVING,
		},
		"store down": {
			ping:       errors.New("connection refused"),
			wantStatus: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		},
		"unknown service": {
			service:  "other.Service",
			wantCode: codes.NotFound,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthHandlers(pingerFunc(func(context.Context) error { return tt.ping }), nil)

			res, err := h.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: tt.service})
			if tt.wantCode != codes.OK {
				assert.Equal(t, tt.wantCode, status.Code(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.GetStatus())
		})
	}
}
