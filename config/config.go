package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Addr          string `yaml:"addr"`
	PublicBaseURL string `yaml:"public_base_url"`
	SecureCookies bool   `yaml:"secure_cookies"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// ConnString is the lib/pq keyword form, also accepted by pq.NewListener.
func (d DatabaseConfig) ConnString() string {
	return "host=" + d.Host + " port=" + d.Port + " user=" + d.User +
		" password=" + d.Password + " dbname=" + d.Name + " sslmode=" + d.SSLMode
}

// URL is the form golang-migrate expects.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type KafkaConfig struct {
	Broker  string `yaml:"broker"`
	Topic   string `yaml:"topic"`
	GroupID string `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type SessionConfig struct {
	// TTL bounds how long a device keeps its in-flight order keys.
	TTL time.Duration `yaml:"ttl"`
	// Idle is how long an unused screen keeps its subscriptions open.
	Idle time.Duration `yaml:"idle"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:          ":8080",
			PublicBaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			Name:    "quickbar",
			User:    "quickbar",
			SSLMode: "disable",
		},
		Redis: RedisConfig{Host: "localhost", Port: "6379"},
		Kafka: KafkaConfig{
			Broker:  "localhost:9092",
			Topic:   "order-events",
			GroupID: "quickbar-stats",
		},
		Auth:    AuthConfig{TokenTTL: 12 * time.Hour},
		Session: SessionConfig{TTL: 7 * 24 * time.Hour, Idle: 30 * time.Minute},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads an optional .env, then the YAML file at path when one is given,
// then environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"HTTP_ADDR":       &cfg.HTTP.Addr,
		"PUBLIC_BASE_URL": &cfg.HTTP.PublicBaseURL,
		"DB_HOST":         &cfg.Database.Host,
		"DB_PORT":         &cfg.Database.Port,
		"DB_NAME":         &cfg.Database.Name,
		"DB_USER":         &cfg.Database.User,
		"DB_PASSWORD":     &cfg.Database.Password,
		"DB_SSLMODE":      &cfg.Database.SSLMode,
		"REDIS_HOST":      &cfg.Redis.Host,
		"REDIS_PORT":      &cfg.Redis.Port,
		"KAFKA_BROKER":    &cfg.Kafka.Broker,
		"KAFKA_TOPIC":     &cfg.Kafka.Topic,
		"JWT_SECRET_KEY":  &cfg.Auth.JWTSecret,
		"LOG_LEVEL":       &cfg.Log.Level,
		"LOG_FORMAT":      &cfg.Log.Format,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		cfg.HTTP.SecureCookies = v == "true" || v == "1"
	}
}

// NewLogger builds the process logger. format is "json" or "text".
func NewLogger(level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return logger, nil
}

func MustInitPostgres(cfg DatabaseConfig, log logrus.FieldLogger) *sql.DB {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	if err = db.Ping(); err != nil {
		log.WithError(err).Fatal("Failed to ping database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis(cfg RedisConfig, log logrus.FieldLogger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr(),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}

	return client
}

func NewKafkaReader(cfg KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Broker},
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
}

func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(cfg.Broker),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
}
