// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	marketDomain "github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/config"
	"github.com/mverab/flasharb/internal/di"
	"github.com/mverab/flasharb/internal/logger"
	"github.com/mverab/flasharb/internal/statestore"
)

// Tokens for the global services every module can resolve during registration.
var (
	TokenConfig   = di.NewToken[*config.Config]("config")
	TokenLogger   = di.NewToken[logger.LoggerInterface]("logger")
	TokenStore    = di.NewToken[statestore.Store]("store")
	TokenRegistry = di.NewToken[*marketDomain.Registry]("registry")
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Store() statestore.Store
	Registry() *marketDomain.Registry
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	store     statestore.Store
	registry  *marketDomain.Registry
	container di.Container
}

// New creates a new Monolith instance. The registry is populated from the
// configured asset and venue lists; unknown names fail configuration.
func New(cfg *config.Config, log logger.LoggerInterface, store statestore.Store) (*app, error) {
	registry := marketDomain.NewRegistry()
	for _, symbol := range cfg.Market.Assets {
		asset, err := marketDomain.ParseAsset(symbol)
		if err != nil {
			return nil, err
		}
		registry.AddAsset(asset)
	}
	for _, name := range cfg.Market.Venues {
		venue, err := marketDomain.ParseVenue(name)
		if err != nil {
			return nil, err
		}
		registry.AddVenue(venue)
	}

	container := di.NewContainer()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("store", store)
	container.Register("registry", registry)

	return &app{
		config:    cfg,
		logger:    log,
		store:     store,
		registry:  registry,
		container: container,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Store() statestore.Store {
	return a.store
}

func (a *app) Registry() *marketDomain.Registry {
	return a.registry
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	return a.store.Close()
}
