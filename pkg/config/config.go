package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTP   `yaml:"http"`
	Postgres PG     `yaml:"postgres"`
	Kafka    Kafka  `yaml:"kafka"`
	Redis    Redis  `yaml:"redis"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3000"`
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"4s"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Kafka struct {
	Brokers string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

// BrokerList splits the comma-separated broker string.
func (k Kafka) BrokerList() []string {
	return strings.Split(k.Brokers, ",")
}

func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Fatalf("config file does not exist: %v\n", err)
		}

		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("error reading config: %v", err)
		}

		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("error reading config from environment: %v", err)
	}

	return &cfg
}
