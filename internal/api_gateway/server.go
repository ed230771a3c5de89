package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/infyemailer-backoffice/internal/api_gateway/handler"
	"github.com/infyemailer-backoffice/internal/api_gateway/service"
	"github.com/infyemailer-backoffice/internal/config"
	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/infyemailer-backoffice/internal/store"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server over the store
func NewServer(log *slog.Logger, cfg *config.Config, storage *store.Storage) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	setupRouter(log, httpRouter, cfg.Metrics, newHandlers(log, storage)...)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// newHandlers builds one handler per exposed record kind plus the membership and credit handlers
func newHandlers(log *slog.Logger, storage *store.Storage) []routeRegistrar {
	clients := service.NewEntityService[entity.Client, entity.ClientPatch](storage.Clients(),
		service.WithPrepare[entity.Client, entity.ClientPatch](clearCredits))

	return []routeRegistrar{
		handler.NewEntityHandler[entity.Client, entity.ClientPatch](log, entity.KindClient, clients),
		handler.NewEntityHandler[entity.Contact, entity.ContactPatch](log, entity.KindContact,
			service.NewEntityService[entity.Contact, entity.ContactPatch](storage.Contacts(),
				service.WithDelete[entity.Contact, entity.ContactPatch](storage.DeleteContact))),
		handler.NewEntityHandler[entity.List, entity.ListPatch](log, entity.KindList,
			service.NewEntityService[entity.List, entity.ListPatch](storage.Lists(),
				service.WithDelete[entity.List, entity.ListPatch](storage.DeleteList))),
		handler.NewEntityHandler[entity.Template, entity.TemplatePatch](log, entity.KindTemplate,
			service.NewEntityService[entity.Template, entity.TemplatePatch](storage.Templates())),
		handler.NewEntityHandler[entity.Campaign, entity.CampaignPatch](log, entity.KindCampaign,
			service.NewEntityService[entity.Campaign, entity.CampaignPatch](storage.Campaigns())),
		handler.NewEntityHandler[entity.Domain, entity.DomainPatch](log, entity.KindDomain,
			service.NewEntityService[entity.Domain, entity.DomainPatch](storage.Domains())),
		handler.NewEntityHandler[entity.Email, entity.EmailPatch](log, entity.KindEmail,
			service.NewEntityService[entity.Email, entity.EmailPatch](storage.Emails())),
		handler.NewMembershipHandler(log, service.NewMembershipService(storage)),
		handler.NewCreditHandler(log, service.NewCreditService(storage.Ledger())),
	}
}

// clearCredits drops caller-supplied balances; client credits only move through the ledger.
func clearCredits(c entity.Client) entity.Client {
	c.Credits = 0
	c.CreditsPurchased = 0
	c.CreditsUsed = 0
	c.CreditsLastUpdated = nil
	return c
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most the server's write timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx := ctx
	if s.httpServer.WriteTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, s.httpServer.WriteTimeout)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
