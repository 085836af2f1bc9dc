package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobabar/api/internal/config"
	"github.com/bobabar/api/internal/database"
	"github.com/bobabar/api/internal/logging"
	"github.com/bobabar/api/internal/notify"
	"github.com/bobabar/api/internal/router"
	"github.com/bobabar/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.MigrateOnStart {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("connected to database")

	hub := ws.NewHub()
	go hub.Run(ctx)

	publisher, closers, err := buildPublisher(cfg, hub)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.WithError(err).Warn("close publisher")
			}
		}
	}()

	r := router.New(router.Deps{
		Config:    cfg,
		Queries:   database.New(pool),
		Pool:      pool,
		Hub:       hub,
		Publisher: publisher,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildPublisher fans order events out to the websocket hub plus whichever
// brokers are configured.
func buildPublisher(cfg *config.Config, hub *ws.Hub) (notify.Publisher, []io.Closer, error) {
	pubs := notify.Multi{notify.NewHubPublisher(hub)}
	var closers []io.Closer

	if cfg.AMQPURL != "" {
		p, err := notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("connect amqp: %w", err)
		}
		pubs = append(pubs, p)
		closers = append(closers, p)
		log.WithField("exchange", cfg.AMQPExchange).Info("publishing order events to amqp")
	}

	if len(cfg.KafkaBrokers) > 0 {
		p := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		pubs = append(pubs, p)
		closers = append(closers, p)
		log.WithField("topic", cfg.KafkaTopic).Info("publishing order events to kafka")
	}

	return pubs, closers, nil
}
