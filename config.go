package main

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/na4oman/samsung-shop/database"
	"go.uber.org/zap"
)

// Config holds all environment variables for the catalog service.
type Config struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	Port      string `env:"PORT" envDefault:"8082"`
	JWTSecret string `env:"JWT_SECRET" validate:"required"`

	CatalogSource   string `env:"CATALOG_SOURCE" envDefault:"dynamodb" validate:"oneof=dynamodb mongo fixture"`
	DynamoTable     string `env:"DDB_TABLE_PRODUCTS" envDefault:"Products"`
	MongoURI        string `env:"MONGO_URI" validate:"required_if=CatalogSource mongo"`
	MongoDatabase   string `env:"MONGO_DB" envDefault:"samsung_shop"`
	MongoCollection string `env:"MONGO_COLLECTION" envDefault:"products"`

	// Empty disables the listing cache and async imports.
	RedisURL string `env:"REDIS_URL"`

	Postgres PostgresConfig `envPrefix:"POSTGRES_"`

	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpoint        string `env:"AWS_ENDPOINT"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSUseSecrets      bool   `env:"AWS_USE_SECRETS"`

	ImageBucket    string `env:"AWS_S3_BUCKET" envDefault:"samsung-shop"`
	ImagePublicURL string `env:"AWS_S3_PUBLIC_URL"`
	ImportBucket   string `env:"IMPORT_BUCKET"`

	CatalogTopicARN string   `env:"CATALOG_EVENTS_TOPIC_ARN"`
	KafkaBrokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic      string   `env:"KAFKA_CATALOG_TOPIC" envDefault:"catalog-events"`
	OrderQueueURL   string   `env:"ORDER_EVENTS_QUEUE_URL"`

	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"log" validate:"oneof=smtp log"`
	SMTPHost      string `env:"SMTP_HOST" validate:"required_if=EmailProvider smtp"`
	SMTPPort      string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPass      string `env:"SMTP_PASS"`
	SMTPFrom      string `env:"SMTP_FROM"`
	AdminEmail    string `env:"ADMIN_EMAIL" validate:"omitempty,email"`

	CloudWatchEnabled   bool   `env:"CLOUDWATCH_ENABLED"`
	CloudWatchNamespace string `env:"CLOUDWATCH_NAMESPACE" envDefault:"SamsungDisplayShop"`
	CloudWatchLogGroup  string `env:"CLOUDWATCH_LOG_GROUP" envDefault:"/samsung-shop/services"`

	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	ImportRatePerMin int      `env:"IMPORT_RATE_PER_MIN" envDefault:"10" validate:"gte=0"`
	ImportRateBurst  int      `env:"IMPORT_RATE_BURST" envDefault:"5" validate:"gte=0"`
}

// PostgresConfig is optional; without a host the import audit trail is off.
type PostgresConfig struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	DB       string `env:"DB"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
	TimeZone string `env:"TIMEZONE" envDefault:"UTC"`
}

func (p PostgresConfig) Enabled() bool { return p.Host != "" }

func (p PostgresConfig) Database() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     p.Host,
		Port:     p.Port,
		User:     p.User,
		Password: p.Password,
		DBName:   p.DB,
		SSLMode:  p.SSLMode,
		TimeZone: p.TimeZone,
	}
}

// SecretSource is satisfied by the Secrets Manager client.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Secret names read when AWS_USE_SECRETS=true.
const (
	SecretJWT      = "catalog/JWT_SECRET"
	SecretSMTPPass = "catalog/SMTP_PASS"
	SecretMongoURI = "catalog/MONGO_URI"
)

// LoadConfig parses the environment. Call ApplySecrets and Validate afterwards.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ImportBucket == "" {
		cfg.ImportBucket = cfg.ImageBucket
	}
	return cfg, nil
}

// ApplySecrets overrides secret values from src. A secret that cannot be read
// keeps its environment value.
func (c *Config) ApplySecrets(ctx context.Context, src SecretSource, logger *zap.Logger) {
	for name, target := range map[string]*string{
		SecretJWT:      &c.JWTSecret,
		SecretSMTPPass: &c.SMTPPass,
		SecretMongoURI: &c.MongoURI,
	} {
		v, err := src.GetSecret(ctx, name)
		if err != nil || v == "" {
			logger.Warn("Secret not loaded, keeping environment value", zap.String("secret", name), zap.Error(err))
			continue
		}
		*target = v
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
