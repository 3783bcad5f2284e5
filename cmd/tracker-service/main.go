package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/betting-tracker/internal/betting/importer"
	"github.com/radieske/betting-tracker/internal/shared/config"
	"github.com/radieske/betting-tracker/internal/shared/db"
	"github.com/radieske/betting-tracker/internal/shared/kafka"
	"github.com/radieske/betting-tracker/internal/shared/logger"
	"github.com/radieske/betting-tracker/internal/shared/metrics"
	"github.com/radieske/betting-tracker/internal/shared/store"
	thttp "github.com/radieske/betting-tracker/internal/tracker-service/http"
	"github.com/radieske/betting-tracker/internal/tracker-service/producer"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres + schema
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	repo := store.NewPostgres(pg)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("postgres schema", zap.Error(err))
	}

	// Kafka writer (topic bet_activity)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetActivity)
	defer writer.Close()

	policy, err := importer.ParsePolicy(cfg.ImportErrorPolicy)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	// Métricas Prometheus
	created := prometheus.NewCounter(prometheus.CounterOpts{Name: "tracker_bets_created_total", Help: "apostas criadas"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tracker_result_transitions_total", Help: "mudanças de resultado por resultado destino"}, []string{"result"})
	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tracker_import_rows_total", Help: "linhas de importação por desfecho"}, []string{"outcome"})
	prometheus.MustRegister(created, transitions, importRows)

	api := thttp.NewServer(log, repo, producer.NewKafkaPublisher(writer), thttp.Options{
		ImportPolicy:    policy,
		ImportBookmaker: cfg.ImportBookmaker,
		DefaultCurrency: cfg.DefaultCurrency,
		Location:        cfg.Location(),
		OnBetCreated:    func() { created.Inc() },
		OnResultChanged: func(result string) { transitions.WithLabelValues(result).Inc() },
		OnImportRows:    func(outcome string, n int) { importRows.WithLabelValues(outcome).Add(float64(n)) },
	})

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log,
		metrics.Check{Name: "postgres", Fn: pg.PingContext},
	)

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("tracker-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
