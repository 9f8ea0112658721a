package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"homeauto/internal/cache"
	"homeauto/internal/clock"
	"homeauto/internal/config"
	"homeauto/internal/db"
	"homeauto/internal/engine"
	"homeauto/internal/logger"
	"homeauto/internal/mqtt"
	"homeauto/internal/notify"
	"homeauto/internal/redis"
	"homeauto/internal/scheduler"
	"homeauto/internal/web"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	log := logger.Get(cfg.LogLevel)

	dbConn, err := db.NewDB(cfg.DBURL)
	if err != nil {
		log.Fatalw("failed to connect to DB", "err", err)
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(cfg.RedisAddr)
	bus := notify.NewBus(redisClient, cfg.NotifyChannel, log)

	mqttClient, err := mqtt.NewClient(cfg.MQTTBroker, cfg.MQTTClientID)
	if err != nil {
		log.Fatalw("failed to connect to MQTT", "err", err)
	}

	clk := clock.New()
	telemetry := cache.New()
	sink := mqtt.NewSink(mqttClient, 5*time.Second)
	dispatcher := engine.NewDispatcher(sink, telemetry, dbConn, bus, clk, log, cfg.CommandTopicPrefix, cfg.PublishMaxRetries)

	eng := engine.NewEngine(mqttClient, telemetry, dbConn, dbConn, dispatcher, clk, log, cfg.SensorTopic, cfg.StatusTopic)
	if err := eng.Start(); err != nil {
		log.Fatalw("failed to start engine", "err", err)
	}

	sched := scheduler.New(dbConn, dispatcher, clk, log)
	if err := sched.Start(time.Duration(cfg.SchedulerInterval) * time.Second); err != nil {
		log.Fatalw("failed to start scheduler", "err", err)
	}

	webServer := web.NewWebServer(telemetry, dbConn)
	go func() {
		if err := webServer.Start(cfg.HTTPAddr); err != nil {
			log.Errorw("web server stopped", "err", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	sched.Stop()
	eng.Stop()
	log.Info("shutdown complete")
}
