package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	NotifierKafka    = "kafka"
	NotifierRabbitMQ = "rabbitmq"
	NotifierBoth     = "both"
	NotifierNone     = "none"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	RedisHost    string
	RedisPort    string
	MenuPriceTTL time.Duration

	KafkaBroker      string
	KafkaTopic       string
	RabbitMQURL      string
	RabbitMQExchange string
	Notifier         string

	Store                         string
	TxMaxRetries                  int
	AllowUnavailableWhileOccupied bool
	QRBaseURL                     string

	LogLevel  string
	LogFormat string
}

// LoadEnvFile loads a .env file into the process environment. A missing file is fine.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// Load reads the configuration from the environment and reports every invalid key at once.
func Load() (*Config, error) {
	var errs *multierror.Error

	cfg := &Config{
		HTTPAddr:         getenv("HTTP_ADDR", ":8083"),
		DBHost:           getenv("DB_HOST", "localhost"),
		DBPort:           getenv("DB_PORT", "5432"),
		DBName:           getenv("DB_NAME", "floor"),
		DBUser:           getenv("DB_USER", "postgres"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBSSLMode:        getenv("DB_SSLMODE", "disable"),
		RedisHost:        os.Getenv("REDIS_HOST"),
		RedisPort:        getenv("REDIS_PORT", "6379"),
		KafkaBroker:      os.Getenv("KAFKA_BROKER"),
		KafkaTopic:       getenv("KAFKA_TOPIC", "floor-events"),
		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange: getenv("RABBITMQ_EXCHANGE", "floor_events"),
		Notifier:         strings.ToLower(getenv("NOTIFIER", NotifierKafka)),
		Store:            strings.ToLower(getenv("STORE", StorePostgres)),
		QRBaseURL:        strings.TrimRight(getenv("QR_BASE_URL", "http://localhost:3000"), "/"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		LogFormat:        strings.ToLower(getenv("LOG_FORMAT", "json")),
	}

	ttl, err := time.ParseDuration(getenv("MENU_PRICE_TTL", "30s"))
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("MENU_PRICE_TTL: %w", err))
	}
	cfg.MenuPriceTTL = ttl

	retries, err := strconv.Atoi(getenv("TX_MAX_RETRIES", "3"))
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("TX_MAX_RETRIES: %w", err))
	}
	cfg.TxMaxRetries = retries

	allow, err := strconv.ParseBool(getenv("ALLOW_UNAVAILABLE_WHILE_OCCUPIED", "true"))
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("ALLOW_UNAVAILABLE_WHILE_OCCUPIED: %w", err))
	}
	cfg.AllowUnavailableWhileOccupied = allow

	if err := cfg.Validate(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return cfg, errs.ErrorOrNil()
}

func (c *Config) Validate() error {
	var errs *multierror.Error

	switch c.Store {
	case StorePostgres:
		if c.DBHost == "" || c.DBName == "" || c.DBUser == "" {
			errs = multierror.Append(errs, errors.New("DB_HOST, DB_NAME and DB_USER are required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = multierror.Append(errs, fmt.Errorf("STORE: unknown store %q", c.Store))
	}

	switch c.Notifier {
	case NotifierKafka, NotifierRabbitMQ, NotifierBoth, NotifierNone:
	default:
		errs = multierror.Append(errs, fmt.Errorf("NOTIFIER: unknown notifier %q", c.Notifier))
	}
	if c.UsesKafka() && c.KafkaBroker == "" {
		errs = multierror.Append(errs, errors.New("KAFKA_BROKER is required for the kafka notifier"))
	}
	if c.UsesRabbitMQ() && c.RabbitMQURL == "" {
		errs = multierror.Append(errs, errors.New("RABBITMQ_URL is required for the rabbitmq notifier"))
	}

	if c.TxMaxRetries < 0 {
		errs = multierror.Append(errs, fmt.Errorf("TX_MAX_RETRIES must not be negative, got %d", c.TxMaxRetries))
	}
	if c.MenuPriceTTL < 0 {
		errs = multierror.Append(errs, fmt.Errorf("MENU_PRICE_TTL must not be negative, got %s", c.MenuPriceTTL))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = multierror.Append(errs, fmt.Errorf("LOG_FORMAT: unknown format %q", c.LogFormat))
	}
	return errs.ErrorOrNil()
}

func (c *Config) UsesKafka() bool {
	return c.Notifier == NotifierKafka || c.Notifier == NotifierBoth
}

func (c *Config) UsesRabbitMQ() bool {
	return c.Notifier == NotifierRabbitMQ || c.Notifier == NotifierBoth
}

func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func (c *Config) PostgresDSN() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" password=" + c.DBPassword + " dbname=" + c.DBName + " sslmode=" + c.DBSSLMode
}

func NewLogger(c *Config) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

func MustInitPostgres(c *Config, log logrus.FieldLogger) *sql.DB {
	db, err := sql.Open("postgres", c.PostgresDSN())
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if err = db.Ping(); err != nil {
		log.WithError(err).Fatal("failed to ping database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis(c *Config, log logrus.FieldLogger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: c.RedisHost + ":" + c.RedisPort,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}

	return client
}

func NewKafkaWriter(c *Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.KafkaBroker),
		Topic:                  c.KafkaTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}
