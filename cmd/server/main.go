package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/internal/handler"
	"go-storefront/internal/model"
	"go-storefront/internal/router"
	"go-storefront/pkg/config"
	"go-storefront/pkg/database"
	"go-storefront/pkg/discovery"
	"go-storefront/pkg/events"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/search"
	"go-storefront/pkg/tracer"
)

func main() {
	c, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if c.Service.Name == "" {
		c.Service.Name = "storefront"
	}

	jwt.Init(c.Jwt.Secret)

	if c.Tracing.Endpoint != "" {
		tp, err := tracer.InitTracer(c.Service.Name, c.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("Failed to init tracer: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Printf("Tracer shutdown: %v", err)
			}
		}()
	}

	db, err := database.InitMySQL(c.Mysql)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Genre{},
		&model.Category{},
		&model.Color{},
		&model.Size{},
		&model.Product{},
		&model.ImageAlbum{},
		&model.Review{},
		&model.DiscountOffer{},
		&model.Order{},
		&model.OrderItem{},
		&model.ShippingAddress{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	rdb := database.InitRedis(c.Redis)

	searchClient, err := search.NewClient(c.Elastic.Address)
	if err != nil {
		log.Fatalf("Failed to connect elasticsearch: %v", err)
	}

	publisher, err := events.NewPublisher(c.Rabbitmq.Url)
	if err != nil {
		log.Fatalf("Failed to connect rabbitmq: %v", err)
	}
	defer publisher.Close()

	if c.Consul.Address != "" {
		if err := discovery.RegisterService(c.Service.Name, c.Service.Port, c.Consul.Address); err != nil {
			log.Fatalf("Failed to register service: %v", err)
		}
	}

	router.InitSentinel()

	h := handler.New(db, rdb, searchClient, publisher)
	r := router.Setup(c.Service.Name, h)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", c.Service.Port),
		Handler: r,
	}

	go func() {
		log.Printf("%s running on %s", c.Service.Name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
