package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/database"
	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/router"
	"github.com/iliyamo/restaurant-table-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client turns the cache and the rate
	// limiter into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	tables := repository.NewTableRepo(db)
	bookings := repository.NewBookingRepo(db, time.Duration(cfg.LockWaitSec)*time.Second)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	policy := service.Policy{
		DefaultDuration: time.Duration(cfg.DefaultDurationMin) * time.Minute,
		MinGuests:       uint32(cfg.MinGuests),
		MaxGuests:       uint32(cfg.MaxGuests),
	}
	bookingSvc := service.NewBookingService(tables, bookings, policy)
	availabilitySvc := service.NewAvailabilityService(tables, policy, cfg.PageSize, cfg.PageSizeMax)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	tableH := handler.NewTableHandler(tables)
	availabilityH := handler.NewAvailabilityHandler(availabilitySvc)
	bookingH := handler.NewBookingHandler(bookingSvc, tables)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterAvailability(e, availabilityH, cache)
	router.RegisterBooking(e, bookingH, cfg.JWTSecret)
	router.RegisterAdminTables(e, tableH, cfg.JWTSecret)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
