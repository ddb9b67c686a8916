// Package v1 exposes the HTTP API: authentication, assistant chat, and
// campaign inspection endpoints.
package v1

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/misciohq/miscio/internal/profile"
	"github.com/misciohq/miscio/server/assistant"
	"github.com/misciohq/miscio/server/middleware"
	"github.com/misciohq/miscio/server/service/campaign"
	"github.com/misciohq/miscio/store"
)

type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store
	Logger  *slog.Logger

	Platform        assistant.Platform
	Orchestrator    *assistant.Orchestrator
	CampaignService *campaign.Service

	rateLimiter *middleware.RateLimiter
}

// NewAPIV1Service wires the API service.
func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store, logger *slog.Logger, platform assistant.Platform, orchestrator *assistant.Orchestrator, campaignService *campaign.Service) *APIV1Service {
	return &APIV1Service{
		Secret:          secret,
		Profile:         profile,
		Store:           store,
		Logger:          logger,
		Platform:        platform,
		Orchestrator:    orchestrator,
		CampaignService: campaignService,
		// 10 requests per second with burst of 20, per operator.
		rateLimiter: middleware.NewRateLimiter(rate.Limit(10), 20),
	}
}

// Register mounts all v1 routes on the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	apiGroup := e.Group("/api/v1")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", s.RegisterAdmin)
	authGroup.POST("/login", s.Login)

	protected := apiGroup.Group("")
	protected.Use(s.authMiddleware)
	protected.Use(s.rateLimiter.Middleware(func(c echo.Context) string {
		if admin, ok := adminFrom(c); ok {
			return admin.UID
		}
		return c.RealIP()
	}))

	protected.POST("/chat/message", s.ProcessMessage)
	protected.GET("/chat/history", s.GetChatHistory)

	protected.GET("/campaigns", s.ListCampaigns)
	protected.GET("/campaigns/:uid/stats", s.GetCampaignStats)

	protected.POST("/students", s.CreateStudent)
	protected.GET("/students", s.ListStudents)
}
