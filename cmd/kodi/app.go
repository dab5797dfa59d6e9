package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/kodi/config"
	"github.com/Ramsey-B/kodi/internal/repositories/legacy"
	"github.com/Ramsey-B/kodi/internal/repositories/staging"
	"github.com/Ramsey-B/kodi/internal/store"
	"github.com/Ramsey-B/kodi/pkg/catalog"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/estimation"
	"github.com/Ramsey-B/kodi/pkg/kafka"
	"github.com/Ramsey-B/kodi/pkg/keywords"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/normalizer"
	"github.com/Ramsey-B/kodi/pkg/processor"
	"github.com/Ramsey-B/kodi/pkg/recode"
	kredis "github.com/Ramsey-B/kodi/pkg/redis"
)

// app holds the process-wide configuration and connections shared by the subcommands.
type app struct {
	cfg    *config.Config
	logger ectologger.Logger
	zap    *zap.Logger

	sqlDB *sqlx.DB
	db    database.DB
	redis *kredis.Client

	producer *kafka.Producer
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapLogger, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	a.zap = zapLogger
	a.logger = zapadapter.NewZapEctoLogger(zapLogger, nil)
	return nil
}

func (a *app) close() {
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
	if a.zap != nil {
		_ = a.zap.Sync()
	}
}

// openDatabase connects to the catalog database, migrating it when migrate is set.
func (a *app) openDatabase(ctx context.Context, migrate bool) error {
	if a.db != nil {
		return nil
	}
	sqlDB, err := database.Open(ctx, a.cfg.Connection(), a.logger)
	if err != nil {
		return err
	}

	if migrate {
		if err := database.NewMigrationService(a.logger, a.cfg.Migration()).MigrateDB(sqlDB); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	a.sqlDB = sqlDB
	a.db = database.NewDatabaseInstance(sqlDB, a.logger)
	return nil
}

func (a *app) openRedis() error {
	if !a.cfg.RedisEnabled || a.redis != nil {
		return nil
	}
	client, err := kredis.NewClient(kredis.Config{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	}, a.logger)
	if err != nil {
		return err
	}
	a.redis = client
	return nil
}

func (a *app) openProducer() {
	if !a.cfg.KafkaEnabled || a.producer != nil {
		return
	}
	a.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      a.cfg.KafkaBrokers,
		Topic:        a.cfg.KafkaOutputTopic,
		BatchSize:    a.cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(a.cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: a.cfg.KafkaRequiredAcks,
		Compression:  a.cfg.KafkaCompression,
	}, a.logger)
}

// services are the catalog components built on top of the open connections.
type services struct {
	store    *store.Store
	staging  *staging.Repository
	engine   *estimation.Engine
	catalog  *processor.Catalog
	keywords *keywords.Service
}

func (a *app) buildServices() (*services, error) {
	strategy, err := catalog.ParseMatchStrategy(a.cfg.CatalogMatchStrategy)
	if err != nil {
		return nil, err
	}
	language, err := models.ParseLanguage(a.cfg.EstimateDefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("invalid ESTIMATE_DEFAULT_LANGUAGE: %w", err)
	}

	catalogStore := store.New(a.db, a.logger)
	stagingRepo := staging.NewRepository(a.db, a.logger)

	var (
		locker normalizer.Locker
		cache  estimation.Cache
		opts   = processor.Options{Staging: stagingRepo}
	)
	if a.redis != nil {
		locker = kredis.NewLocker(a.redis, a.cfg.RedisPrefix+"lock:", a.cfg.LockWait)
		estimateCache := kredis.NewEstimateCache(a.redis, a.cfg.RedisPrefix, a.cfg.CacheTTL)
		cache = estimateCache
		opts.Invalidator = estimateCache
	}
	if a.producer != nil {
		opts.Publisher = a.producer
	}

	n := normalizer.New(catalogStore, locker, a.logger, normalizer.Options{
		Strategy:              strategy,
		MaxConflictRetries:    a.cfg.NormalizerMaxConflictRetries,
		CrossLanguageFallback: a.cfg.NormalizerCrossLanguage,
		LockTTL:               a.cfg.LockTTL,
	})
	sources := []normalizer.Source{
		normalizer.NewStagingSource(stagingRepo),
		normalizer.NewLegacySource(legacy.NewRepository(a.db, a.logger)),
	}

	return &services{
		store:    catalogStore,
		staging:  stagingRepo,
		engine:   estimation.NewEngine(catalogStore, cache, a.logger, language),
		catalog:  processor.NewCatalog(n, recode.New(catalogStore, a.logger), sources, a.logger, opts),
		keywords: keywords.NewService(catalogStore, a.logger),
	}, nil
}
