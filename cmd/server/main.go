package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/dinebook/restaurant-reservation/internal/config"
	"github.com/dinebook/restaurant-reservation/internal/database"
	"github.com/dinebook/restaurant-reservation/internal/handler"
	"github.com/dinebook/restaurant-reservation/internal/jobs"
	"github.com/dinebook/restaurant-reservation/internal/middleware"
	"github.com/dinebook/restaurant-reservation/internal/queue"
	"github.com/dinebook/restaurant-reservation/internal/repository"
	"github.com/dinebook/restaurant-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment directly")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis is optional; when unreachable the cache and rate limiter
	// become pass-through.
	rdb := config.NewRedisClient()

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	restaurantRepo := repository.NewRestaurantRepo(db)
	tableRepo := repository.NewTableRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	authHandler := handler.NewAuthHandler(userRepo, tokenRepo, restaurantRepo, &cfg)
	dinerBookings := handler.NewDinerBookingHandler(bookingRepo, restaurantRepo)
	restaurantBookings := handler.NewRestaurantBookingHandler(bookingRepo, restaurantRepo)
	tables := handler.NewTableHandler(tableRepo, restaurantRepo)
	profile := handler.NewProfileHandler(restaurantRepo)
	browse := handler.NewBrowseHandler(restaurantRepo, tableRepo)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterDiner(e, dinerBookings, cfg.JWTSecret)
	router.RegisterRestaurant(e, restaurantBookings, tables, profile, cfg.JWTSecret)
	router.RegisterPublic(e, browse,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)

	// Booking lifecycle events are consumed into logs/booking.log. The
	// consumer reconnects on its own; a missing broker only costs the
	// notification log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	// Stale pending bookings are also swept on a schedule so they expire
	// even when no restaurant opens its pending list.
	sweepSpec := os.Getenv("BOOKING_SWEEP_CRON")
	if sweepSpec == "" {
		sweepSpec = "*/5 * * * *"
	}
	sweeper := jobs.NewExpirySweeper(bookingRepo, restaurantRepo)
	cr := sweeper.Start(sweepSpec)
	defer cr.Stop()

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
