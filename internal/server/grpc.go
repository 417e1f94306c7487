package server

import (
	"clinicflow/subscription-service/internal/auth"
	"clinicflow/subscription-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/validate"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewGRPCServer new a gRPC server. It carries the standard health service
// so orchestrators can probe the process.
func NewGRPCServer(c *conf.Bootstrap, logger log.Logger) *grpc.Server {
	var opts = []grpc.ServerOption{
		grpc.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			auth.Middleware(),
			validate.Validator(),
		),
		grpc.CustomHealth(),
	}
	if c.Server != nil {
		if c.Server.Grpc.Addr != "" {
			opts = append(opts, grpc.Address(c.Server.Grpc.Addr))
		}
		if timeout, _ := conf.ParseDuration(c.Server.Grpc.Timeout); timeout > 0 {
			opts = append(opts, grpc.Timeout(timeout))
		}
	}
	srv := grpc.NewServer(opts...)

	hs := health.NewServer()
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}
