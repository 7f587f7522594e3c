package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hmebridge/internal/common"
	"github.com/ternarybob/hmebridge/internal/handlers"
	"github.com/ternarybob/hmebridge/internal/interfaces"
	"github.com/ternarybob/hmebridge/internal/services/alias"
	"github.com/ternarybob/hmebridge/internal/services/auth"
	"github.com/ternarybob/hmebridge/internal/services/credentials"
	"github.com/ternarybob/hmebridge/internal/services/icloud"
	"github.com/ternarybob/hmebridge/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	db              *badger.BadgerDB
	CredentialStore interfaces.CredentialStore

	// Services
	AuthResolver      *auth.Resolver
	UpstreamClient    *icloud.Client
	AliasService      *alias.Service
	CredentialService *credentials.Service

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	AliasHandler      *handlers.AliasHandler
	CredentialHandler *handlers.CredentialHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Storage
	db, err := badger.NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db
	app.CredentialStore = badger.NewCredentialStorage(db, logger)

	// Upstream transport
	timeout, err := time.ParseDuration(cfg.Upstream.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Client{Timeout: timeout}

	// Services
	app.AuthResolver = auth.NewResolver(app.CredentialStore, logger)
	app.UpstreamClient = icloud.NewClient(transport, cfg.Upstream.UserAgent, logger)
	app.AliasService = alias.NewService(app.AuthResolver, app.UpstreamClient, logger)
	app.CredentialService = credentials.NewService(app.CredentialStore, logger)

	// Handlers
	app.APIHandler = handlers.NewAPIHandler()
	app.AliasHandler = handlers.NewAliasHandler(app.AliasService, logger)
	app.CredentialHandler = handlers.NewCredentialHandler(app.CredentialService, cfg.Admin.Token, logger)

	if cfg.Admin.Token == "" {
		logger.Warn().Msg("Admin token not configured - credential administration is disabled")
	}

	logger.Info().Msg("Application initialized")
	return app, nil
}

// Close releases application resources
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
