package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/venuedesk/backend/config"
	repository "github.com/venuedesk/backend/internal/database/postgres"
	rediscache "github.com/venuedesk/backend/internal/database/redis"
	"github.com/venuedesk/backend/internal/service"
	"github.com/venuedesk/backend/internal/transport"
	"github.com/venuedesk/backend/internal/worker"

	"github.com/venuedesk/backend/pkg/postgres"
	"github.com/venuedesk/backend/pkg/rabbitmq"
	"github.com/venuedesk/backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	eventRepo := repository.NewEventRepository(db)
	tableRepo := repository.NewTableRepository(db)
	guestRepo := repository.NewGuestRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	refRepo := repository.NewReferenceRepository(db)

	// Initialize event cache
	var cache service.EventCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewRedisClient(&cfg.Redis)
		defer redisClient.Close()
		cache = rediscache.NewEventCache(redisClient, cfg.App.CacheTTL)
		logrus.Info("Event cache initialized")
	} else {
		logrus.Warn("Redis disabled, running without event cache")
	}

	// Initialize activity publisher
	var publisher service.ActivityPublisher
	if cfg.RabbitMQ.Enabled && cfg.RabbitMQ.URL != "" {
		amqpPublisher, err := rabbitmq.NewActivityPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logrus.Errorf("Failed to initialize RabbitMQ publisher: %v. Continuing without notifications...", err)
		} else {
			defer amqpPublisher.Close()
			publisher = amqpPublisher
			logrus.Info("Activity publisher initialized")
		}
	} else {
		logrus.Warn("RabbitMQ disabled, activity notifications off")
	}

	// Initialize services
	eventService := service.NewEventService(eventRepo, tableRepo, guestRepo, ticketRepo, refRepo, cache, publisher)
	guestService := service.NewGuestService(eventRepo, guestRepo, refRepo, cache, publisher)
	ticketService := service.NewTicketService(eventRepo, ticketRepo, refRepo, cache, publisher)
	referenceService := service.NewReferenceService(refRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize reconcile worker
	interval := cfg.Worker.ReconcileInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	reconcileWorker := worker.NewSummaryReconcileWorker(eventRepo, tableRepo, guestRepo, ticketRepo, interval, cfg.Worker.BatchSize)
	go reconcileWorker.Start(ctx)
	logrus.Info("Reconcile worker started")

	// Initialize handlers
	eventHandler := transport.NewEventHandler(eventService)
	guestHandler := transport.NewGuestHandler(guestService)
	ticketHandler := transport.NewTicketHandler(ticketService)
	referenceHandler := transport.NewReferenceHandler(referenceService)

	// Setup HTTP server
	if cfg.Server.Env == "production" || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(eventHandler, guestHandler, ticketHandler, referenceHandler)); err != nil {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
