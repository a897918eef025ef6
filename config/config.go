package config

import (
	"os"

	postgres_wrapper "github.com/joripage/matching-engine/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/matching-engine/pkg/infra/redis"
	kafkawrapper "github.com/joripage/matching-engine/pkg/kafka_wrapper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	LogLevel    string                           `yaml:"log_level"`
	Engine      *EngineConfig                    `yaml:"engine"`
	TradeDB     *postgres_wrapper.PostgresConfig `yaml:"trade_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	Kafka       *kafkawrapper.KafkaConfig        `yaml:"kafka"`
	Nats        *NatsConfig                      `yaml:"nats"`
	Fix         *FixConfig                       `yaml:"fix"`
}

type EngineConfig struct {
	// Symbols fixes the instrument list; empty accepts any symbol.
	Symbols    []string `yaml:"symbols"`
	ShardCount int      `yaml:"shard_count"`
	QueueSize  int      `yaml:"queue_size"`
}

type NatsConfig struct {
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
	Subject string `yaml:"subject"`
	Durable string `yaml:"durable"`
}

type FixConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ConfigFile string `yaml:"config_file"`
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	fields := []interface{}{
		"func",
		"config.readFromFile",
		"filePath",
		filePath,
	}

	sugar := zap.S().With(fields...)

	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}

	err = yaml.Unmarshal(configBytes, cfg)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}
	cfg.setDefaults()

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}

func (c *AppConfig) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "matching-engine"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Engine == nil {
		c.Engine = &EngineConfig{}
	}
	if c.Engine.ShardCount <= 0 {
		c.Engine.ShardCount = 8
	}
	if c.Engine.QueueSize <= 0 {
		c.Engine.QueueSize = 1024
	}
}
