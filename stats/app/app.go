package app

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookhive/borrowing-service/pkg/kafka"
	"github.com/bookhive/borrowing-service/pkg/logger"
	"github.com/bookhive/borrowing-service/pkg/postgres"
	"github.com/bookhive/borrowing-service/stats/config"
	"github.com/bookhive/borrowing-service/stats/internal/handler"
	"github.com/bookhive/borrowing-service/stats/internal/repository"
	"github.com/bookhive/borrowing-service/stats/internal/server"
	"github.com/bookhive/borrowing-service/stats/internal/service"
	"github.com/bookhive/borrowing-service/stats/migrations"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "stats")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	defer db.Close()

	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo stats %v", err)
	}
	svc := service.NewService(repo, log)

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.StatsConsumerGroup)
	if err != nil {
		return fmt.Errorf("kafka consumer %v", err)
	}
	defer consumer.Close() //nolint:errcheck

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return kafka.Consume(ctx, consumer, handler.NewConsumer(svc.HandleEvent, log), kafka.BorrowingTopic)
	})
	g.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr",
				net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		return srv.Run()
	})
	g.Go(func() error {
		<-ctx.Done()

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	err = g.Wait()
	log.Info("Graceful shutdown finished", zap.Error(err))
	return nil
}
