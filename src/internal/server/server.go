package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance-svc/src/clients"
	"attendance-svc/src/internal/config"
	"attendance-svc/src/internal/dependency"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

type Server struct {
	cfg  *config.Configuration
	deps *dependency.Manager
	http *http.Server
}

func New(cfg *config.Configuration) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	mongodb, err := clients.NewMongoDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}

	redisClient, err := clients.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}

	rabbitMQ, err := clients.NewRabbitMQ(&cfg.Queue)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}

	if err := rabbitMQ.SetupExchange(); err != nil {
		log.WithError(err).Fatal("Failed to declare RabbitMQ exchange")
	}

	deps := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, cfg)
	SetupRoutes(deps)

	return &Server{
		cfg:  cfg,
		deps: deps,
		http: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		},
	}
}

func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.ensureIndexes(ctx)

	// Background credential expiry sweep; the lazy sweep in Validate covers
	// the window between ticks.
	go s.deps.CredentialService.RunSweeper(ctx)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info("Shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := s.http.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Server forced to shutdown")
		}

		s.deps.RabbitMQ.Close()
		s.deps.Redis.Close()
		s.deps.Mongodb.Close(shutdownCtx)
	}()

	log.WithField("port", s.cfg.Server.Port).Info("Server listening")

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) ensureIndexes(ctx context.Context) {
	indexCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Database.Timeout)*time.Second)
	defer cancel()

	if err := s.deps.CredentialRepo.EnsureIndexes(indexCtx); err != nil {
		log.WithError(err).Fatal("Failed to ensure credential indexes")
	}
	if err := s.deps.SessionRepo.EnsureIndexes(indexCtx); err != nil {
		log.WithError(err).Fatal("Failed to ensure session indexes")
	}
}
