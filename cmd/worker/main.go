package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/joripage/matching-engine/config"
	"github.com/joripage/matching-engine/pkg/infra"
	postgres_wrapper "github.com/joripage/matching-engine/pkg/infra/postgres"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/matching/repo"
	"github.com/joripage/matching-engine/pkg/matching/worker"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	var configFile, migrations string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&migrations, "migrate", "", "Apply migrations from this source before consuming, e.g. file://migration/sql")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}
	if cfg.Nats == nil || cfg.TradeDB == nil {
		panic("worker needs nats and trade_db config")
	}

	logger := logging.Init(cfg.ServiceName+"-worker", cfg.LogLevel)
	defer logger.Sync() // nolint
	log := logger.Zap()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	nc, err := nats.Connect(cfg.Nats.URL, nats.Name(cfg.ServiceName+"-worker"))
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

	var db *gorm.DB
	if migrations != "" {
		db, err = infra.GetMigrateTool().ConnectAndMigrate(cfg.TradeDB, migrations)
	} else {
		db, err = postgres_wrapper.InitPostgresWithBackoff(cfg.TradeDB)
	}
	if err != nil {
		log.Fatal("init trade db", zap.Error(err))
	}

	w := worker.NewWorker(repo.NewRepo(db), log)
	log.Info("trade worker started", zap.String("subject", cfg.Nats.Subject), zap.String("durable", cfg.Nats.Durable))
	if err := w.StartConsumer(ctx, js, cfg.Nats.Subject, cfg.Nats.Durable); err != nil {
		log.Fatal("trade consumer", zap.Error(err))
	}
	log.Info("trade worker stopped")
}
