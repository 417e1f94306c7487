package server

import (
	"encoding/json"
	stdhttp "net/http"
	"time"

	v1 "clinicflow/subscription-service/api/subscription/v1"
	"clinicflow/subscription-service/internal/auth"
	"clinicflow/subscription-service/internal/conf"
	"clinicflow/subscription-service/internal/errors"
	"clinicflow/subscription-service/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/validate"
	"github.com/go-kratos/kratos/v2/transport/http"
)

const serviceName = "subscription-service"

// HealthReply is the body of GET /health
type HealthReply struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Time    int64  `json:"time"`
}

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Bootstrap, sub *service.SubscriptionService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			auth.Middleware(),
			validate.Validator(),
		),
		http.ErrorEncoder(customErrorEncoder),
	}
	if c.Server != nil {
		if c.Server.Http.Addr != "" {
			opts = append(opts, http.Address(c.Server.Http.Addr))
		}
		if timeout, _ := conf.ParseDuration(c.Server.Http.Timeout); timeout > 0 {
			opts = append(opts, http.Timeout(timeout))
		}
	}
	srv := http.NewServer(opts...)

	v1.RegisterSubscriptionHTTPServer(srv, sub)

	srv.Route("/").GET("/health", func(ctx http.Context) error {
		return ctx.Result(200, &HealthReply{Status: "ok", Service: serviceName, Time: time.Now().Unix()})
	})

	return srv
}

func customErrorEncoder(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	se := kerrors.FromError(err)
	status := stdhttp.StatusInternalServerError
	response := map[string]interface{}{
		"code":    status,
		"message": "internal server error",
	}

	if se != nil {
		status = errors.HTTPStatus(int(se.Code))
		response["code"] = se.Code
		response["reason"] = se.Reason
		response["message"] = se.Message
		if len(se.Metadata) > 0 {
			response["metadata"] = se.Metadata
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
