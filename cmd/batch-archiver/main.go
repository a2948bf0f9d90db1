package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/djmorgan26/urfmp-sub001/internal/archive"
	"github.com/djmorgan26/urfmp-sub001/internal/broker"
	"github.com/djmorgan26/urfmp-sub001/internal/config"
	"github.com/djmorgan26/urfmp-sub001/internal/intake"
	"github.com/djmorgan26/urfmp-sub001/internal/runtime"
)

func main() {
	cfg, err := config.LoadArchiverConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := config.GetLogger()

	logger.Printf("[boot] batch-archiver | brokers=%s group=%s topic=%s minio=%s bucket=%s",
		cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaInputTopic, cfg.MinIOEndpoint, cfg.MinIOBucket)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runtime.SetupGracefulShutdown(cancel, logger)

	objectStore, err := archive.NewMinIO(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseTLS, cfg.MinIOBucket)
	if err != nil {
		logger.Fatalf("[minio] client error: %v", err)
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Fatalf("[minio] ensure bucket error: %v", err)
	}

	consumer := broker.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaInputTopic)
	defer consumer.Close()

	batcher := archive.NewBatcher(
		cfg.ArchiveMaxRows,
		cfg.ArchiveMaxBytes,
		time.Duration(cfg.ArchiveMaxIntervalMs)*time.Millisecond,
		objectStore,
		cfg.ArchiveBasePath,
		cfg.ArchiveCompression,
	)

	spool := archive.NewSpool(batcher, consumer, logger)

	// Flushes get their own deadline so the final flush during shutdown
	// still runs after ctx is cancelled.
	flush := func() {
		fctx, fcancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer fcancel()
		n, err := spool.Flush(fctx)
		if err != nil {
			logger.Printf("[archive] flush failed (will retry): %v", err)
			return
		}
		if n > 0 {
			logger.Printf("[archive] part uploaded: rows=%d", n)
		}
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	fetched := make(chan kafka.Message, 1000)
	go func() {
		for {
			m, err := consumer.Fetch(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					close(fetched)
					return
				}
				logger.Printf("[kafka] fetch error: %v", err)
				time.Sleep(50 * time.Millisecond)
				continue
			}
			fetched <- m
		}
	}()

	for {
		select {
		case m, ok := <-fetched:
			if !ok {
				flush()
				logger.Println("[shutdown] batch-archiver stopped")
				return
			}
			full, err := spool.Ingest(ctx, m)
			if err != nil {
				logger.Printf("[archive] bad event, skipping: %v | payload=%s", err, intake.Truncate(m.Value, 256))
				continue
			}
			if full {
				flush()
			}
		case <-ticker.C:
			if spool.Due() {
				flush()
			}
		case <-ctx.Done():
			flush()
			logger.Println("[shutdown] batch-archiver stopped")
			return
		}
	}
}
