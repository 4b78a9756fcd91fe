package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/PedroFabrino/nameko-devex/internal/orders/repository"
	"github.com/PedroFabrino/nameko-devex/internal/orders/service"
	orderhttp "github.com/PedroFabrino/nameko-devex/internal/orders/transport/http"
	"github.com/PedroFabrino/nameko-devex/pkg/config"
	"github.com/PedroFabrino/nameko-devex/pkg/db"
	pkgkafka "github.com/PedroFabrino/nameko-devex/pkg/kafka"
	"github.com/PedroFabrino/nameko-devex/pkg/mylogger"
	outboxrepo "github.com/PedroFabrino/nameko-devex/pkg/outbox/repository"
	"github.com/PedroFabrino/nameko-devex/pkg/outbox/worker"
	"github.com/PedroFabrino/nameko-devex/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := utils.InitTracer(ctx, "orders-service")
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: cfg.LogLevel,
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	orderRepo := repository.NewOrderRepository(pool, logger)
	outboxRepo := outboxrepo.NewOutboxRepository(pool, logger)
	orderService := service.NewOrderService(pool, logger, orderRepo, outboxRepo)
	orderHandler := orderhttp.NewOrderHandler(orderService, logger)

	kafkaProducer, err := pkgkafka.NewProducer(cfg.Kafka.BrokerList())
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}
	defer kafkaProducer.Close()

	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepo, kafkaProducer, logger)

	go outboxProcessor.Start(ctx)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.Timeout,
		WriteTimeout: cfg.HTTP.Timeout,
	})
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(recover.New())

	orderhttp.RegisterRoutes(app, orderHandler)

	go func() {
		mylogger.Info(ctx, logger, "Starting orders HTTP server", zap.String("port", cfg.HTTP.Port))

		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("error serving http: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), time.Second*5)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down orders server")

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down http server", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
