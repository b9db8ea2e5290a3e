package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/na4oman/samsung-shop/consumer"
	"github.com/na4oman/samsung-shop/controllers"
	"github.com/na4oman/samsung-shop/database"
	"github.com/na4oman/samsung-shop/kafka"
	"github.com/na4oman/samsung-shop/middleware"
	"github.com/na4oman/samsung-shop/models"
	awspkg "github.com/na4oman/samsung-shop/pkg/aws"
	"github.com/na4oman/samsung-shop/pkg/logger"
	"github.com/na4oman/samsung-shop/repository"
	"github.com/na4oman/samsung-shop/routes"
	"github.com/na4oman/samsung-shop/sender"
	"github.com/na4oman/samsung-shop/services"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "catalog-service"

func main() {
	bootstrap, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		bootstrap.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awspkg.LoadAWSConfig(ctx, awspkg.Options{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.AWSEndpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		bootstrap.Fatal("Failed to load AWS config", zap.Error(err))
	}

	if cfg.AWSUseSecrets {
		cfg.ApplySecrets(ctx, awspkg.NewSecretsClient(awsCfg), bootstrap)
	}
	if err := cfg.Validate(); err != nil {
		bootstrap.Fatal("Invalid configuration", zap.Error(err))
	}

	log := newLogger(ctx, cfg, awsCfg, bootstrap)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	// --- Stores ---

	repo, closeRepo, err := buildCatalogStore(ctx, cfg, awsCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize catalog store", zap.String("source", cfg.CatalogSource), zap.Error(err))
	}
	defer closeRepo()
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Warn("Failed to ensure product indexes", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Warn("Redis unavailable, listing cache and async imports disabled", zap.Error(err))
			rdb = nil
		}
	}

	var auditDB *gorm.DB
	if cfg.Postgres.Enabled() {
		auditDB, err = database.ConnectPostgres(cfg.Postgres.Database(), log, &models.ImportRun{})
		if err != nil {
			log.Warn("Import audit trail disabled", zap.Error(err))
			auditDB = nil
		}
	}

	// --- Events ---

	bus := services.NewEventBus(log)
	var cache *controllers.CacheManager
	if rdb != nil {
		cache = controllers.NewCacheManager(rdb, log)
		bus.Subscribe(cache.OnCatalogEvent)
	}
	if cfg.CatalogTopicARN != "" {
		bus.Subscribe(services.SNSForwarder(awspkg.NewSNSClient(awsCfg, log), cfg.CatalogTopicARN, log))
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer func() { _ = producer.Close() }()
		bus.Subscribe(producer.Forward)
	}

	// --- Services ---

	metrics := awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)
	detector := services.NewDuplicateDetector(repo, log)

	importOpts := []services.ImportOption{services.WithEvents(bus), services.WithMetrics(metrics)}
	if auditDB != nil {
		importOpts = append(importOpts, services.WithImportRuns(repository.NewGormImportRunRepository(auditDB)))
	}
	importer := services.NewImportService(repo, detector, log, importOpts...)

	images := awspkg.NewObjectStore(awsCfg, cfg.ImageBucket, cfg.ImagePublicURL)
	productService := services.NewProductService(repo, detector, bus, images, log)

	var jobs services.ImportJobService
	if rdb != nil {
		jobStore := repository.NewRedisJobStore(rdb)
		archive := awspkg.NewObjectStore(awsCfg, cfg.ImportBucket, "")
		jobs = services.NewImportJobService(jobStore, archive, importer, log)
		services.StartImportWorker(ctx, jobStore, jobs, log)
	}

	if cfg.OrderQueueURL != "" {
		notifier, err := buildOrderNotifier(cfg, log)
		if err != nil {
			log.Fatal("Failed to initialize order notifier", zap.Error(err))
		}
		orders := consumer.NewSQSConsumer(awspkg.NewSQSClient(awsCfg), cfg.OrderQueueURL, notifier, log)
		go orders.Start(ctx)
	}

	// --- HTTP Server & Middleware ---

	validator := controllers.NewRequestValidator()
	productController := controllers.NewProductController(productService, cache, validator, log)
	importController := controllers.NewImportController(importer, jobs, validator, log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.MetricsMiddleware(metrics, serviceName),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.AllowedOrigins),
	)

	routes.RegisterProductRoutes(r, productController, importController, routes.Options{
		JWTSecret:        cfg.JWTSecret,
		ImportRatePerMin: cfg.ImportRatePerMin,
		ImportRateBurst:  cfg.ImportRateBurst,
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "catalog_source": cfg.CatalogSource})
	})

	// --- Graceful Shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Catalog service starting", zap.String("port", cfg.Port), zap.String("catalog_source", cfg.CatalogSource))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down catalog service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}
	if err := database.ClosePostgres(auditDB); err != nil {
		log.Error("Failed to close PostgreSQL", zap.Error(err))
	}
	log.Info("Catalog service stopped gracefully")
}

// newLogger builds the process logger, teeing into CloudWatch Logs when enabled.
func newLogger(ctx context.Context, cfg *Config, awsCfg sdkaws.Config, bootstrap *zap.Logger) *zap.Logger {
	var cwWriter io.Writer
	if cfg.CloudWatchEnabled {
		cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			bootstrap.Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(err))
		} else {
			cwWriter = cw
		}
	}
	log, err := logger.New(cfg.Env, cwWriter)
	if err != nil {
		bootstrap.Warn("Falling back to bootstrap logger", zap.Error(err))
		return bootstrap
	}
	return log
}

// buildCatalogStore returns the store named by CATALOG_SOURCE.
func buildCatalogStore(ctx context.Context, cfg *Config, awsCfg sdkaws.Config, log *zap.Logger) (repository.ProductRepo, func(), error) {
	noop := func() {}
	switch cfg.CatalogSource {
	case "mongo":
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewMongoAdapter(db, cfg.MongoCollection), func() { disconnect(client, log) }, nil
	case "fixture":
		log.Warn("Serving the built-in sample catalog")
		return repository.NewFixtureAdapter(repository.SampleProducts()), noop, nil
	default:
		return repository.NewDynamoAdapter(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable), noop, nil
	}
}

func disconnect(client *mongo.Client, log *zap.Logger) {
	if err := database.DisconnectMongo(client); err != nil {
		log.Error("Failed to disconnect MongoDB", zap.Error(err))
	}
}

// buildOrderNotifier selects the email transport named by EMAIL_PROVIDER.
func buildOrderNotifier(cfg *Config, log *zap.Logger) (*services.OrderNotifier, error) {
	var emailSender sender.EmailSender
	switch cfg.EmailProvider {
	case "smtp":
		smtpSender, err := sender.NewSMTPSender(sender.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			return nil, err
		}
		emailSender = smtpSender
	default:
		log.Info("EMAIL_PROVIDER=log, order emails are logged and not delivered")
		emailSender = sender.NewLogSender(log)
	}
	return services.NewOrderNotifier(emailSender, cfg.AdminEmail, log)
}
