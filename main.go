package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/handlers"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/auth"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/cart"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/clock"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/consul"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/gateway"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/menu"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/orders"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/stores/kafka"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/stores/postgres"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/users"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/logkey"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("startup failed", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	db, err := postgres.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}

	authKeys, err := auth.NewKeys(os.Getenv("ACCESS_TOKEN_SECRET"), os.Getenv("REFRESH_TOKEN_SECRET"))
	if err != nil {
		return err
	}

	userConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	menuConf, err := menu.NewConf(db)
	if err != nil {
		return err
	}
	cartConf, err := cart.NewConf(db)
	if err != nil {
		return err
	}

	gw, err := gateway.NewRazorpay(os.Getenv("RAZORPAY_KEY_ID"), os.Getenv("RAZORPAY_KEY_SECRET"))
	if err != nil {
		return err
	}

	orderStore, err := orders.NewPostgresStore(db)
	if err != nil {
		return err
	}
	scheduler := orders.NewScheduler(orderStore, time.Minute)
	orderConf, err := orders.NewConf(orderStore, cartConf, menuConf, gw, scheduler, clock.NewSystem())
	if err != nil {
		return err
	}

	// In-memory countdowns do not survive restarts; re-arm them from the
	// ledger before serving traffic.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := scheduler.Rearm(ctx); err != nil {
		slog.Error("re-arming countdowns failed", slog.String(logkey.ERROR, err.Error()))
	}

	var kafkaConf *kafka.Conf
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafkaConf, err = kafka.NewConf(strings.Split(brokers, ","))
		if err != nil {
			return err
		}
		defer kafkaConf.Close()
	} else {
		slog.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	if os.Getenv("CONSUL_REGISTER") == "true" {
		client, err := consul.NewClient()
		if err != nil {
			return err
		}
		host := os.Getenv("SERVICE_HOST")
		if host == "" {
			host = "localhost"
		}
		if err := consul.RegisterService(client, "restaurant-backend", host, consul.ServicePort()); err != nil {
			return err
		}
	}

	r := handlers.API(userConf, menuConf, cartConf, orderConf, kafkaConf, authKeys)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("starting server", slog.String("Port", port))
	return r.Run(":" + port)
}
