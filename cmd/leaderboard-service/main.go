package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	lbcache "github.com/radieske/betting-tracker/internal/leaderboard-service/cache"
	lbhttp "github.com/radieske/betting-tracker/internal/leaderboard-service/http"
	"github.com/radieske/betting-tracker/internal/leaderboard-service/ws"
	"github.com/radieske/betting-tracker/internal/shared/cache"
	"github.com/radieske/betting-tracker/internal/shared/config"
	"github.com/radieske/betting-tracker/internal/shared/db"
	"github.com/radieske/betting-tracker/internal/shared/logger"
	"github.com/radieske/betting-tracker/internal/shared/metrics"
	"github.com/radieske/betting-tracker/internal/shared/store"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	c := lbcache.New(redisClient)

	wsConns := prometheus.NewGauge(prometheus.GaugeOpts{Name: "leaderboard_ws_connections", Help: "conexões WebSocket abertas"})
	prometheus.MustRegister(wsConns)

	// WebSocket: repassa o Pub/Sub do stats-processor para os assinantes
	hub := ws.NewHub(log, originChecker(cfg.CORSOrigins))
	hub.Snapshot = c.Snapshot
	hub.OnConnect = wsConns.Inc
	hub.OnDisconnect = wsConns.Dec
	ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log)

	api := &lbhttp.API{
		Log:       log,
		Cache:     c,
		Source:    store.NewPostgres(pg),
		TTL:       cfg.LeaderboardCacheTTL,
		Threshold: cfg.ProvisionalThreshold,
		WS:        hub.HandleWS,
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log,
		metrics.Check{Name: "postgres", Fn: pg.PingContext},
		metrics.Check{Name: "redis", Fn: cache.Health(redisClient)},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("leaderboard-service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}

// originChecker libera as origens de CORS_ORIGINS ("*" libera todas)
func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		if allowed["*"] {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
