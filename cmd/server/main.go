package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/movieticket/ticket-booking/internal/booking"
	"github.com/movieticket/ticket-booking/internal/config"
	"github.com/movieticket/ticket-booking/internal/database"
	"github.com/movieticket/ticket-booking/internal/handler"
	"github.com/movieticket/ticket-booking/internal/middleware"
	"github.com/movieticket/ticket-booking/internal/queue"
	"github.com/movieticket/ticket-booking/internal/repository"
	"github.com/movieticket/ticket-booking/internal/router"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	halls := repository.NewHallRepo(db)
	sessions := repository.NewSessionRepo(db)
	orders := repository.NewOrderRepo(db)
	store := repository.NewBookingStore(db)

	svc := booking.NewService(store, booking.NewOrderNoGenerator(), booking.Config{
		TTL:              time.Duration(cfg.OrderTTLMin) * time.Minute,
		MaxSeatsPerOrder: cfg.MaxSeatsPerOrder,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := booking.NewSweeper(svc, time.Duration(cfg.SweepIntervalSec)*time.Second)
	go sweeper.Run(ctx)

	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewCatalogHandler(movies, sessions, svc), cache)
	router.RegisterBooking(e, handler.NewBookingHandler(svc, orders, sessions, movies, halls), cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, handler.NewAdminHandler(movies, halls, sessions, orders), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
