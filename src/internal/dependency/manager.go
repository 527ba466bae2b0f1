package dependency

import (
	"attendance-svc/src/clients"
	"attendance-svc/src/internal/attendance"
	"attendance-svc/src/internal/cache"
	"attendance-svc/src/internal/clock"
	"attendance-svc/src/internal/config"
	"attendance-svc/src/internal/credential"

	"github.com/gin-gonic/gin"
)

type Manager struct {
	Router            *gin.Engine
	Config            *config.Configuration
	Mongodb           *clients.MongoDB
	Redis             *clients.RedisClient
	RabbitMQ          *clients.RabbitMQ
	EmployeeClient    *clients.EmployeeClient
	CacheService      cache.Service
	CredentialRepo    credential.Repository
	CredentialService credential.Service
	CredentialHandler credential.Handler
	SessionRepo       attendance.Repository
	AttendanceService attendance.Service
	HistoryService    attendance.HistoryService
	AttendanceHandler attendance.Handler
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) *Manager {
	clk := clock.System()
	cacheService := cache.NewCacheService(redisClient.Client, cfg)
	employeeClient := clients.NewEmployeeClient(cfg, rabbitMQ.Channel)

	credentialRepo := credential.NewCredentialRepository(mongodb, cfg.Database.CredentialCollection)
	credentialService := credential.NewCredentialService(credentialRepo, clk, cfg)
	credentialHandler := credential.NewHandler(cfg, credentialService)

	sessionRepo := attendance.NewSessionRepository(mongodb, cfg.Database.SessionCollection)
	directory := attendance.NewCachedDirectory(employeeClient, cacheService)
	attendanceService := attendance.NewAttendanceService(sessionRepo, credentialService, directory, employeeClient, clk, cfg)
	historyService := attendance.NewHistoryService(sessionRepo, credentialService, clk, cfg)
	attendanceHandler := attendance.NewHandler(cfg, attendanceService, historyService, cacheService)

	return &Manager{
		Router:            router,
		Config:            cfg,
		Mongodb:           mongodb,
		Redis:             redisClient,
		RabbitMQ:          rabbitMQ,
		EmployeeClient:    employeeClient,
		CacheService:      cacheService,
		CredentialRepo:    credentialRepo,
		CredentialService: credentialService,
		CredentialHandler: credentialHandler,
		SessionRepo:       sessionRepo,
		AttendanceService: attendanceService,
		HistoryService:    historyService,
		AttendanceHandler: attendanceHandler,
	}
}
