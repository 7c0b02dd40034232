package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-eventreg/internal/attendee"
	attendeeapi "ms-eventreg/internal/attendee/api"
	attendeedb "ms-eventreg/internal/attendee/db"
	"ms-eventreg/internal/cache"
	"ms-eventreg/internal/config"
	"ms-eventreg/internal/database/migrations"
	"ms-eventreg/internal/dispatcher"
	"ms-eventreg/internal/event"
	eventapi "ms-eventreg/internal/event/api"
	eventdb "ms-eventreg/internal/event/db"
	"ms-eventreg/internal/logger"
	"ms-eventreg/internal/mailer"
	"ms-eventreg/internal/models"
	"ms-eventreg/internal/queue"
	"ms-eventreg/internal/sse"
	"ms-eventreg/internal/sweep"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	// --- PostgreSQL ---
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("failed to connect to Postgres: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	if err := runner.MigrateUp(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("migrations failed: %v", err))
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// A cache outage degrades to always-miss, so this is not fatal.
		log.Warn("CACHE", fmt.Sprintf("failed to connect to Redis at %s: %v", cfg.Redis.Addr, err))
	}
	pingCancel()
	defer redisClient.Close()

	cacheCoord := cache.NewCoordinator(redisClient, cfg.Cache.TTL, log)

	// --- Queue & mail transport ---
	producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, log)
	defer consumer.Close()

	var mailTransport mailer.Mailer
	if cfg.Email.MailerSendAPIKey != "" {
		mailTransport = mailer.NewMailerSendMailer(cfg.Email.MailerSendAPIKey, "Event Service", cfg.Email.From)
		log.Info("MAILER", "using MailerSend transport")
	} else {
		mailTransport = mailer.NewSMTPMailer(cfg.Email)
		log.Info("MAILER", fmt.Sprintf("using SMTP transport via %s", cfg.Email.SMTPHost))
	}

	// --- Services ---
	notifier := sse.NewNotifier()

	eventService := event.NewEventService(&eventdb.DB{Bun: bunDB}, cacheCoord, producer, notifier, log)
	attendeeService := attendee.NewAttendeeService(&attendeedb.DB{Bun: bunDB}, cacheCoord, log)

	eventHandler := &eventapi.Handler{EventService: eventService, Logger: log}
	attendeeHandler := &attendeeapi.Handler{AttendeeService: attendeeService, Logger: log}
	sseHandler := eventapi.NewSSEHandler(log, notifier)

	// --- Background workers ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())

	disp := dispatcher.New(mailTransport, log)
	go consumer.Start(workerCtx, func(job models.EmailJob) {
		disp.Process(workerCtx, job)
	})

	reminderSweep := sweep.New(&eventdb.DB{Bun: bunDB}, producer, log, cfg.Sweep.RunAtHour)
	go reminderSweep.Start(workerCtx)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// The SSE stream lives outside the request timeout group; every
	// other request is bounded.
	r.Get("/v1/event/notification", sseHandler.StreamNotifications)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

		r.Get("/v1/event/all", eventHandler.GetAllEvents)
		r.Get("/v1/event/most-registrations", eventHandler.GetAllEventsByRegistrations)
		r.Post("/v1/event/create", eventHandler.CreateEvent)
		r.Post("/v1/event/{eventID}/register/{attendeeID}", eventHandler.RegisterAttendee)
		r.Delete("/v1/event/unregister/{registrationID}", eventHandler.UnregisterAttendee)
		r.Get("/v1/event/{eventID}", eventHandler.GetOneEvent)
		r.Patch("/v1/event/{eventID}", eventHandler.UpdateEvent)
		r.Delete("/v1/event/{eventID}", eventHandler.DeleteEvent)

		r.Get("/v1/attendee/all", attendeeHandler.GetAllAttendees)
		r.Get("/v1/attendee/multiple-events", attendeeHandler.GetAllAttendeesWithMultipleEvents)
		r.Post("/v1/attendee/create", attendeeHandler.CreateAttendee)
		r.Get("/v1/attendee/{attendeeID}", attendeeHandler.GetOneAttendee)
		r.Patch("/v1/attendee/{attendeeID}", attendeeHandler.UpdateAttendee)
		r.Delete("/v1/attendee/{attendeeID}", attendeeHandler.DeleteAttendee)
	})

	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
		// No WriteTimeout: SSE connections stay open indefinitely.
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("event service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "shutdown signal received, cleaning up")

	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("SERVER", fmt.Sprintf("server forced to shutdown: %v", err))
	}

	log.Info("SERVER", "server exited gracefully")
}
