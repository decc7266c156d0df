package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grubdash/cmd"
	"grubdash/internal/adapters/in/queue"
	"grubdash/internal/adapters/out/postgres/deliveryrepo"
	"grubdash/internal/adapters/out/postgres/orderrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	gormDB := mustConnectDB(configs)
	redisClient := redis.NewClient(&redis.Options{Addr: configs.RedisAddr})

	root := cmd.NewCompositionRoot(configs, gormDB, redisClient, logger)
	defer func() {
		if err := root.Close(); err != nil {
			logger.Error("Failed to close outbound adapters", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startConsumers(ctx, configs, root, logger)

	jobManager := root.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	e := echo.New()
	root.CreateHTTPServer().RegisterRoutes(e)

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil {
			logger.Info("Web server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Web server shutdown failed", "error", err)
	}
}

func startConsumers(ctx context.Context, configs cmd.Config, root *cmd.CompositionRoot, logger *slog.Logger) {
	brokers := []string{configs.KafkaHost}

	consumers := []*queue.Consumer{
		queue.NewConsumer(brokers, configs.KafkaConsumerGroup, configs.KafkaOrderEventsTopic,
			root.CreateOrderEventsDispatcher(), logger),
		queue.NewConsumer(brokers, configs.KafkaConsumerGroup, configs.KafkaDeliveryEventsTopic,
			root.CreateDeliveryEventsDispatcher(), logger),
		queue.NewConsumer(brokers, configs.KafkaConsumerGroup, configs.KafkaOrderBatchingTopic,
			root.CreateBatchingDispatcher(), logger),
	}

	for _, consumer := range consumers {
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("Consumer stopped", "error", err)
			}
		}()
	}
}

func mustConnectDB(configs cmd.Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser, configs.DBPassword, configs.DBName, configs.DBSslMode)

	gormDB, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err = gormDB.AutoMigrate(&orderrepo.OrderDTO{}, &deliveryrepo.DeliveryDTO{}); err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	return gormDB
}

func getConfigs() cmd.Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Fatalf("Error loading .env file")
	}

	return cmd.Config{
		HTTPPort:                 os.Getenv("HTTP_PORT"),
		DBHost:                   os.Getenv("DB_HOST"),
		DBPort:                   os.Getenv("DB_PORT"),
		DBUser:                   os.Getenv("DB_USER"),
		DBPassword:               os.Getenv("DB_PASSWORD"),
		DBName:                   os.Getenv("DB_NAME"),
		DBSslMode:                os.Getenv("DB_SSLMODE"),
		KafkaHost:                os.Getenv("KAFKA_HOST"),
		KafkaConsumerGroup:       os.Getenv("KAFKA_CONSUMER_GROUP"),
		KafkaOrderEventsTopic:    os.Getenv("KAFKA_ORDER_EVENTS_TOPIC"),
		KafkaDeliveryEventsTopic: os.Getenv("KAFKA_DELIVERY_EVENTS_TOPIC"),
		KafkaOrderBatchingTopic:  os.Getenv("KAFKA_ORDER_BATCHING_TOPIC"),
		KafkaNotificationsTopic:  os.Getenv("KAFKA_NOTIFICATIONS_TOPIC"),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
	}
}
