package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MrFastDie/byceps/internal/config"
	"github.com/MrFastDie/byceps/internal/database"
	"github.com/MrFastDie/byceps/internal/handler"
	"github.com/MrFastDie/byceps/internal/middleware"
	"github.com/MrFastDie/byceps/internal/queue"
	"github.com/MrFastDie/byceps/internal/repository"
	"github.com/MrFastDie/byceps/internal/router"
	"github.com/MrFastDie/byceps/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; without it rate limiting and the response
	// cache degrade to pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tickets := repository.NewTicketRepo(db)
	bundles := repository.NewTicketBundleRepo(db)
	events := repository.NewTicketEventRepo(db)
	categories := repository.NewCategoryRepo(db)
	parties := repository.NewPartyRepo(db)
	seats := repository.NewSeatRepo(db)
	attendance := repository.NewAttendanceRepo(db)

	// Ticket core: unit-of-work store plus best-effort event fan-out.
	store := repository.NewStore(db)
	ticketService := service.NewTicketService(store, queue.NewPublisher())

	// Handlers.
	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	ticketHandler := handler.NewTicketHandler(tickets, users, seats, categories, ticketService)
	adminHandler := handler.NewTicketAdminHandler(tickets, bundles, events, categories, users, ticketService)
	attendanceHandler := handler.NewAttendanceHandler(attendance, parties)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterTickets(e, ticketHandler, cfg.JWTSecret)
	router.RegisterAttendance(e, attendanceHandler, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterTicketAdmin(e, adminHandler, attendanceHandler, cfg.JWTSecret)

	// Audit log consumer; reconnects on its own, so one goroutine is
	// enough for the process lifetime.
	go func() {
		if err := queue.StartTicketEventConsumer(); err != nil {
			log.Printf("ticket-events consumer stopped: %v", err)
		}
	}()

	// Expired refresh tokens are rejected at validation time anyway;
	// this sweep only reclaims storage.
	go func() {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := tokens.DeleteExpired(ctx)
			cancel()
			if err != nil {
				log.Printf("token cleanup: %v", err)
			} else if n > 0 {
				log.Printf("token cleanup: removed %d expired refresh tokens", n)
			}
			time.Sleep(time.Hour)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
