package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/api"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/breaker"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/bus"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/cache"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/config"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/ecoflow"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/energy"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/ingest"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/logging"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/observability"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/telemetry"
)

func main() {
	cfg := config.Load()

	lg, err := logging.New(cfg.LogFile, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		panic(err)
	}
	defer lg.Close()
	log := lg.Logger

	log.Info("config loaded",
		"bind", cfg.BindAddr,
		"device", cfg.DeviceSN,
		"pollInterval", cfg.PollInterval.String(),
		"cacheTTL", cfg.CacheTTL.String(),
	)

	metrics := observability.NewMetrics()
	store := telemetry.NewStore()

	client := ecoflow.New(cfg.EcoFlowBaseURL, cfg.EcoFlowAccessKey, cfg.EcoFlowSecretKey, cfg.DeviceSN)
	cb := breaker.New("ecoflow", breaker.Config{
		MaxFailures:  cfg.BreakerMaxFailures,
		ResetTimeout: cfg.BreakerResetTimeout,
	}, log.With("component", "breaker"))

	fanout := bus.NewFanout(log.With("component", "bus"), metrics)
	if cfg.MQTTBroker != "" {
		mq, err := bus.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic, log.With("component", "mqtt"))
		if err != nil {
			log.Error("mqtt connect failed", "broker", cfg.MQTTBroker, "error", err.Error())
		} else {
			fanout.Add("mqtt", mq)
			log.Info("mqtt sink enabled", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
		}
	}
	if len(cfg.KafkaBrokers) > 0 {
		fanout.Add("kafka", bus.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log.With("component", "kafka")))
		log.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer fanout.Close()

	var pub bus.Publisher
	if fanout.Sinks() > 0 {
		pub = fanout
	}

	poller := ingest.New(client, store, pub, cb, cfg.PollInterval, log.With("component", "poller"), metrics)
	pollCtx, cancelPoll := context.WithCancel(context.Background())
	defer cancelPoll()
	go func() {
		_ = poller.Run(pollCtx)
	}()

	h := &api.Handlers{
		Log:   log.With("component", "api"),
		Store: store,
		Cache: cache.New[[]energy.PeriodReport](cfg.CacheTTL, metrics),
		Start: time.Now(),
	}
	srv := api.NewServer(cfg.BindAddr, log, api.NewRouter(h, metrics), cfg.HTTPReadTimeout, cfg.HTTPWriteTimeout)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
		}
	}()
	log.Info("smart plug backend started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancelPoll()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error("shutdown error", "error", err.Error())
	}
	log.Info("smart plug backend stopped")
}
