package main

import (
	"flag"

	"github.com/joripage/matching-engine/config"
	"github.com/joripage/matching-engine/pkg/infra"
	"github.com/joripage/matching-engine/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	var configFile, source string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&source, "source", "file://migration/sql", "Migration source URL")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}
	if cfg.TradeDB == nil {
		panic("missing trade_db config")
	}

	logger := logging.Init(cfg.ServiceName+"-migrate", cfg.LogLevel)
	defer logger.Sync() // nolint

	mgTool := infra.GetMigrateTool()
	if err := mgTool.Migrate(source, cfg.TradeDB.MigrationConnURL); err != nil {
		zap.S().Fatalf("migrate trade db: %v", err)
	}
}
