package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/PedroFabrino/nameko-devex/internal/products/repository"
	"github.com/PedroFabrino/nameko-devex/internal/products/service"
	productshttp "github.com/PedroFabrino/nameko-devex/internal/products/transport/http"
	productskafka "github.com/PedroFabrino/nameko-devex/internal/products/transport/kafka"
	"github.com/PedroFabrino/nameko-devex/pkg/config"
	"github.com/PedroFabrino/nameko-devex/pkg/db"
	"github.com/PedroFabrino/nameko-devex/pkg/mylogger"
	"github.com/PedroFabrino/nameko-devex/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := utils.InitTracer(ctx, "products-service")
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

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	defer redisClient.Close()

	productRepo := repository.NewProductRepository(pool, logger)
	reconRepo := repository.NewReconciliationRepository(pool, logger)

	productService := service.NewProductService(productRepo, pool, logger)
	cachedService := service.NewCachedProductService(productService, redisClient)

	reconciler := service.NewStockReconciler(pool, logger, productRepo, reconRepo)
	consumer := productskafka.NewConsumer(reconciler, logger)

	go consumer.Start(ctx, cfg.Kafka.BrokerList())

	productHandler := productshttp.NewProductHandler(cachedService, reconRepo, logger)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.Timeout,
		WriteTimeout: cfg.HTTP.Timeout,
	})
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(recover.New())

	productshttp.RegisterRoutes(app, productHandler)

	go func() {
		mylogger.Info(ctx, logger, "Starting products HTTP server", zap.String("port", cfg.HTTP.Port))

		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("error serving http: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), time.Second*5)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down products server")

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down http server", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
