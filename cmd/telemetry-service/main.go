package main

import (
	"context"
	"log"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/djmorgan26/urfmp-sub001/internal/broker"
	"github.com/djmorgan26/urfmp-sub001/internal/cache"
	"github.com/djmorgan26/urfmp-sub001/internal/config"
	"github.com/djmorgan26/urfmp-sub001/internal/database"
	"github.com/djmorgan26/urfmp-sub001/internal/intake"
	"github.com/djmorgan26/urfmp-sub001/internal/mqtt"
	"github.com/djmorgan26/urfmp-sub001/internal/processing"
	"github.com/djmorgan26/urfmp-sub001/internal/registry"
	"github.com/djmorgan26/urfmp-sub001/internal/runtime"
)

func main() {
	cfg, err := config.LoadServiceConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := config.GetLogger()

	logger.Printf("[boot] telemetry-service | mqtt=%s topic=%s influx=%s bucket=%s redis=%s kafka=%v",
		cfg.MQTTBrokerURL, cfg.MQTTTopic, cfg.InfluxURL, cfg.InfluxBucket, cfg.RedisAddr, cfg.KafkaBrokers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runtime.SetupGracefulShutdown(cancel, logger)

	store := database.NewInfluxStore(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket, cfg.InfluxMeasurement)
	defer store.Close()

	redisTimeout := time.Duration(cfg.RedisTimeoutMs) * time.Millisecond
	reg := registry.NewRedisRegistry(registry.RedisOpts{
		Addr:              cfg.RedisAddr,
		Password:          cfg.RedisPassword,
		DB:                cfg.RedisDB,
		Namespace:         cfg.RedisNamespace,
		UsePubSub:         cfg.RedisUsePubSub,
		InvalidateChannel: cfg.RedisInvalidateChan,
		Timeout:           redisTimeout,
	})
	defer reg.Close()

	telemetryCache := cache.NewTelemetryCache(cache.RedisOpts{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		Namespace: cfg.RedisNamespace,
		Timeout:   redisTimeout,
	})
	defer telemetryCache.Close()

	producer := broker.NewProducer(cfg.KafkaBrokers, cfg.KafkaNotifyTopic, cfg.KafkaDLQTopic)
	defer producer.Close()

	proc := processing.NewProcessor(store, reg, telemetryCache, producer, logger, processing.Options{
		CacheTTL:     time.Duration(cfg.CacheTTLSeconds) * time.Second,
		TestRobotIDs: cfg.TestRobotIDs,
	})
	handler := intake.NewHandler(proc, producer, logger)

	client := mqtt.BuildClient(mqtt.Options{
		BrokerURL: cfg.MQTTBrokerURL,
		ClientID:  cfg.MQTTClientID,
		Topic:     cfg.MQTTTopic,
		QoS:       byte(cfg.MQTTQoS),
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
		Logger:    logger,
	}, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler.HandleMessage(ctx, msg)
	})
	mqtt.ConnectWithBackoff(ctx, logger, client, 2*time.Second, 30*time.Second)

	<-ctx.Done()
	client.Disconnect(250)
	logger.Println("[shutdown] telemetry-service stopped")
}
