package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"github.com/joripage/matching-engine/config"
	"github.com/joripage/matching-engine/pkg/cache"
	redis_wrapper "github.com/joripage/matching-engine/pkg/infra/redis"
	kafkawrapper "github.com/joripage/matching-engine/pkg/kafka_wrapper"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/matching"
	eventstore "github.com/joripage/matching-engine/pkg/matching/event_store"
	fixgateway "github.com/joripage/matching-engine/pkg/matching/fix"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func main() {
	var configFile, pprofAddr string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&pprofAddr, "pprof", "", "pprof listen address, e.g. localhost:6060")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.Init(cfg.ServiceName, cfg.LogLevel)
	defer logger.Sync() // nolint
	log := logger.Zap()

	if pprofAddr != "" {
		go func() {
			if err := http.ListenAndServe(pprofAddr, nil); err != nil {
				log.Warn("pprof server stopped", zap.Error(err))
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engines := orderbook.NewEngineManager(&orderbook.EngineManagerConfig{Symbols: cfg.Engine.Symbols}, log)
	opts := []matching.Option{matching.WithLogger(log)}

	if cfg.Redis != nil {
		client, err := redis_wrapper.InitRedis(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("init redis", zap.Error(err))
		}
		defer client.Close() // nolint
		opts = append(opts, matching.WithSnapshotCache(cache.NewRedisCache(client, cfg.Redis.SnapshotTTL())))
	}

	var producer *kafkawrapper.Producer
	if cfg.Kafka != nil && cfg.Kafka.TradeTopic != "" {
		producer = kafkawrapper.NewProducer(kafkawrapper.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			BatchTimeout: 5 * time.Millisecond,
			RequiredAcks: kafka.RequireAll,
		})
		opts = append(opts, matching.WithTradeSink(matching.NewKafkaTradeSink(producer, cfg.Kafka.TradeTopic)))
	}

	if cfg.Nats != nil {
		nc, err := nats.Connect(cfg.Nats.URL, nats.Name(cfg.ServiceName))
		if err != nil {
			log.Fatal("connect nats", zap.Error(err))
		}
		defer nc.Drain() // nolint

		js, err := nc.JetStream()
		if err != nil {
			log.Fatal("jetstream context", zap.Error(err))
		}
		if err := matching.EnsureStream(js, cfg.Nats.Stream, cfg.Nats.Subject); err != nil {
			log.Fatal("ensure trade stream", zap.Error(err))
		}
		opts = append(opts, matching.WithTradeSink(matching.NewNatsTradeSink(js, cfg.Nats.Subject)))
	}

	svc := matching.NewMatchingService(engines, eventstore.NewInMemoryEventStore(), opts...)
	router := matching.NewRouter(svc, cfg.Engine.ShardCount, cfg.Engine.QueueSize, log)
	defer router.Stop()

	if cfg.Fix != nil && cfg.Fix.Enabled {
		gateway := fixgateway.NewFixGateway(&fixgateway.FixGatewayConfig{ConfigFilepath: cfg.Fix.ConfigFile}, router, log)
		svc.AddOrderGateway(gateway)
		defer gateway.Stop()
	}

	if err := svc.Start(ctx); err != nil {
		log.Fatal("start matching service", zap.Error(err))
	}

	if cfg.Kafka != nil && cfg.Kafka.CommandTopic != "" {
		group, err := kafkawrapper.NewConsumerGroup(kafkawrapper.ConsumerConfig{
			Brokers:    cfg.Kafka.Brokers,
			GroupID:    cfg.Kafka.GroupID,
			Topic:      cfg.Kafka.CommandTopic,
			MaxRetries: cfg.Kafka.MaxRetries,
			DLQTopic:   cfg.Kafka.DLQTopic,
		}, log)
		if err != nil {
			log.Fatal("init command consumer", zap.Error(err))
		}
		defer group.Close() // nolint

		go func() {
			if err := matching.NewCommandConsumer(group, router, log).Run(ctx); err != nil {
				log.Error("command consumer stopped", zap.Error(err))
				cancel()
			}
		}()
	}

	log.Info("matching engine started", zap.Strings("symbols", cfg.Engine.Symbols))
	<-ctx.Done()
	log.Info("shutting down")

	if producer != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := producer.Close(closeCtx); err != nil {
			log.Warn("close trade producer", zap.Error(err))
		}
	}
}
