package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/misciohq/miscio/store"
)

type campaignResponse struct {
	UID         string `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// ListCampaigns returns the operator's campaigns, newest first.
// GET /api/v1/campaigns
func (s *APIV1Service) ListCampaigns(c echo.Context) error {
	ctx := c.Request().Context()

	admin, ok := adminFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unknown operator"})
	}

	campaigns, err := s.Store.ListCampaigns(ctx, &store.FindCampaign{AdminID: &admin.ID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list campaigns"})
	}

	out := make([]campaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		out = append(out, campaignResponse{
			UID:         campaign.UID,
			Description: campaign.Description,
			Status:      string(campaign.Status),
			CreatedAt:   time.Unix(campaign.CreatedTs, 0).UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"campaigns": out})
}

// GetCampaignStats returns outreach statistics for one campaign.
// GET /api/v1/campaigns/:uid/stats
func (s *APIV1Service) GetCampaignStats(c echo.Context) error {
	ctx := c.Request().Context()

	uid := c.Param("uid")
	campaign, err := s.Store.GetCampaign(ctx, &store.FindCampaign{UID: &uid})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load campaign"})
	}
	if campaign == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "campaign not found"})
	}

	stats, err := s.CampaignService.Stats(ctx, campaign.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to compute stats"})
	}
	return c.JSON(http.StatusOK, stats)
}
