// Package di wires repositories, services, and handlers together.
package di

import (
	"github.com/henrychris/EventManagement/internal/clock"
	"github.com/henrychris/EventManagement/internal/handler"
	"github.com/henrychris/EventManagement/internal/metrics"
	"github.com/henrychris/EventManagement/internal/repository"
	"github.com/henrychris/EventManagement/internal/service"
	"github.com/henrychris/EventManagement/internal/validator"
	"github.com/henrychris/EventManagement/pkg/config"
	"github.com/henrychris/EventManagement/pkg/database"
	"github.com/henrychris/EventManagement/pkg/logger"
	"github.com/henrychris/EventManagement/pkg/redis"
	"go.uber.org/zap"
)

// ContainerConfig holds the external dependencies the container wires up.
// Redis may be nil; event reads then skip the cache.
type ContainerConfig struct {
	Config *config.Config
	DB     *database.PostgresDB
	Redis  *redis.Client
}

// Container holds all constructed components
type Container struct {
	EventService service.EventService
	AuthService  service.AuthService

	EventHandler  *handler.EventHandler
	AuthHandler   *handler.AuthHandler
	HealthHandler *handler.HealthHandler
}

// NewContainer builds the full object graph.
func NewContainer(cfg *ContainerConfig) *Container {
	clk := clock.NewSystem()

	// Repositories. Writes always hit postgres; reads go through the cache
	// when Redis is available.
	pgEvents := repository.NewPostgresEventRepository(cfg.DB.Pool())
	users := repository.NewPostgresUserRepository(cfg.DB.Pool())
	uowFactory := repository.NewPgxUnitOfWorkFactory(cfg.DB.Pool())

	var eventRepo repository.EventRepository = pgEvents
	var invalidator service.CacheInvalidator
	if cfg.Redis != nil {
		cached := repository.NewCachedEventRepository(pgEvents, cfg.Redis)
		eventRepo = cached
		invalidator = cached
	}

	m, err := metrics.New()
	if err != nil {
		logger.Get().Warn("metrics disabled", zap.Error(err))
		m = nil
	}

	eventValidator := validator.NewEventValidator(clk)

	eventService := service.NewEventService(eventRepo, uowFactory, eventValidator, clk, m, invalidator)
	authService := service.NewAuthService(users, cfg.Config.JWT, clk)

	return &Container{
		EventService:  eventService,
		AuthService:   authService,
		EventHandler:  handler.NewEventHandler(eventService),
		AuthHandler:   handler.NewAuthHandler(authService),
		HealthHandler: handler.NewHealthHandler(cfg.DB, cfg.Redis),
	}
}
