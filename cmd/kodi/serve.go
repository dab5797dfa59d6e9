package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/kodi/pkg/kafka"
	"github.com/Ramsey-B/kodi/pkg/routes"
	"github.com/Ramsey-B/kodi/pkg/routes/catalog"
	"github.com/Ramsey-B/kodi/pkg/routes/estimate"
	"github.com/Ramsey-B/kodi/pkg/routes/health"
	"github.com/Ramsey-B/kodi/pkg/routes/keywords"
	"github.com/Ramsey-B/kodi/pkg/startup"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the staging consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	log := a.logger.WithContext(ctx)

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.AppName,
		Endpoint:    cfg.OtelEndpoint,
		Protocol:    cfg.OtelProtocol,
		Insecure:    cfg.OtelInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	checker := health.NewChecker(cfg.Version)
	var consumer *kafka.Consumer

	boot := startup.NewStartup(a.logger, cfg.StartupMaxAttempts)
	boot.AddDependency(startup.Dependency{
		Name: "database",
		StartFn: func(ctx context.Context) error {
			if err := a.openDatabase(ctx, cfg.DatabaseMigrateOnStart); err != nil {
				return err
			}
			checker.AddCheck("database", a.sqlDB.PingContext)
			return nil
		},
	})
	if cfg.RedisEnabled {
		boot.AddDependency(startup.Dependency{
			Name: "redis",
			StartFn: func(ctx context.Context) error {
				if err := a.openRedis(); err != nil {
					return err
				}
				checker.AddCheck("redis", a.redis.Ping)
				return nil
			},
		})
	}
	if err := boot.Start(ctx); err != nil {
		return err
	}

	a.openProducer()
	svc, err := a.buildServices()
	if err != nil {
		return err
	}

	if cfg.KafkaEnabled {
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaStagingTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, a.logger, svc.catalog.ProcessMessage)
		checker.AddCheck("kafka", func(context.Context) error {
			if !consumer.Health() {
				return errors.New("consumer is not running")
			}
			return nil
		})
	}

	e := routes.NewServer(cfg.AppName, routes.Handlers{
		Estimate: estimate.NewHandler(svc.engine),
		Catalog:  catalog.NewHandler(svc.catalog),
		Keywords: keywords.NewHandler(svc.keywords),
		Health:   checker,
	}, a.logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)

	if consumer != nil {
		if err := consumer.Start(gctx); err != nil {
			return err
		}
	}

	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		checker.SetReady(false)
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if consumer != nil {
			if err := consumer.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("consumer stop: %w", err))
			}
		}
		if err := boot.Stop(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	checker.SetReady(true)
	return g.Wait()
}
