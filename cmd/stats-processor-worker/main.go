package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	sharedcache "github.com/radieske/betting-tracker/internal/shared/cache"
	"github.com/radieske/betting-tracker/internal/shared/config"
	"github.com/radieske/betting-tracker/internal/shared/db"
	"github.com/radieske/betting-tracker/internal/shared/kafka"
	"github.com/radieske/betting-tracker/internal/shared/logger"
	"github.com/radieske/betting-tracker/internal/shared/metrics"
	"github.com/radieske/betting-tracker/internal/shared/store"
	"github.com/radieske/betting-tracker/internal/stats-processor/cache"
	"github.com/radieske/betting-tracker/internal/stats-processor/consumer"
	"github.com/radieske/betting-tracker/internal/stats-processor/pubsub"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer group stats-processor no tópico bet_activity; DLQ para mensagens inválidas
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetActivity, "stats-processor")
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetActivityDLQ)
	defer dlq.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "stats_proc_messages_consumed_total", Help: "mensagens consumidas"})
	recomputed := prometheus.NewCounter(prometheus.CounterOpts{Name: "stats_proc_recomputes_total", Help: "recálculos de leaderboard/resumo concluídos"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "stats_proc_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, recomputed, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		DLQ:         dlq,
		Source:      store.NewPostgres(pg),
		Cache:       cache.NewRedisCache(redisClient, cfg.LeaderboardCacheTTL),
		Broadcaster: pubsub.NewRedisBroadcaster(redisClient),
		Channel:     cfg.RedisPubSubChannel,

		ProvisionalThreshold: cfg.ProvisionalThreshold,
		Location:             cfg.Location(),

		OnConsumed:   func() { consumed.Inc() },
		OnRecomputed: func() { recomputed.Inc() },
		OnError:      func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log,
		metrics.Check{Name: "postgres", Fn: pg.PingContext},
		metrics.Check{Name: "redis", Fn: sharedcache.Health(redisClient)},
	)
	defer metricsSrv.Close()

	// aquece o cache antes do primeiro evento
	if err := proc.Recompute(ctx, ""); err != nil {
		log.Warn("initial recompute failed", zap.Error(err))
	}

	log.Info("stats-processor started", zap.String("topic", cfg.TopicBetActivity))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("stats-processor stopped")
}
