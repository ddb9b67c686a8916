// Package server hosts the HTTP surface of the service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/misciohq/miscio/internal/profile"
	"github.com/misciohq/miscio/server/assistant"
	apiv1 "github.com/misciohq/miscio/server/router/api/v1"
	"github.com/misciohq/miscio/server/service/campaign"
	"github.com/misciohq/miscio/store"
)

type Server struct {
	profile *profile.Profile
	store   *store.Store
	logger  *slog.Logger

	echoServer *echo.Echo
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store, logger *slog.Logger, platform assistant.Platform, orchestrator *assistant.Orchestrator, campaignService *campaign.Service) (*Server, error) {
	s := &Server{
		profile: profile,
		store:   store,
		logger:  logger,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()))
			return err
		},
	}))
	echoServer.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: false,
	}))

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	apiV1Service := apiv1.NewAPIV1Service(profile.Secret, profile, store, logger, platform, orchestrator, campaignService)
	apiV1Service.Register(echoServer)

	s.echoServer = echoServer
	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	s.logger.Info("server listening", slog.String("address", address))
	if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "failed to start echo server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("failed to close store", slog.String("error", err.Error()))
	}

	s.logger.Info("server stopped")
}
