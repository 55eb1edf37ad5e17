package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chatwave/chat-backend/api/controllers"
	"github.com/chatwave/chat-backend/api/middleware"
	"github.com/chatwave/chat-backend/internal/redpackets"
	"github.com/chatwave/chat-backend/pkg/config"
	"github.com/chatwave/chat-backend/pkg/logger"
)

// Dependencies are the collaborators the HTTP surface needs.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       RedisClient
	RedPackets  redpackets.Service
	MetricsFrom prometheus.Gatherer
}

// RedisClient is the slice of the redis client used by routing: readiness and throttling.
type RedisClient interface {
	controllers.Pinger
	middleware.FixedWindowLimiter
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	gatherer := deps.MetricsFrom
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	var redisPinger controllers.Pinger
	var limiter middleware.FixedWindowLimiter
	if deps.Redis != nil {
		redisPinger = deps.Redis
		limiter = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": redisPinger,
		}))
	})

	claimPolicy := middleware.NewRateLimitPolicy("red_packet_claim", cfg.HTTP.ClaimRateWindow, cfg.HTTP.ClaimRateLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/red-packets", func(r chi.Router) {
			r.Post("/", controllers.IssueRedPacket(deps.RedPackets, logg))
			r.Route("/{packetId}", func(r chi.Router) {
				r.Get("/", controllers.RedPacketStatus(deps.RedPackets, logg))
				r.Get("/records", controllers.RedPacketRecords(deps.RedPackets, logg))
				r.With(middleware.UserRateLimit(claimPolicy, limiter, logg)).
					Post("/claim", controllers.ClaimRedPacket(deps.RedPackets, logg))
			})
		})
	})

	return r
}
