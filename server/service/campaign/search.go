package campaign

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/misciohq/miscio/internal/errors"
)

// DefaultSearchLimit bounds a chat search when the caller does not supply one.
const DefaultSearchLimit = 100

// ChatSearchResult is one hit of a chat history search.
type ChatSearchResult struct {
	StudentName         string `json:"student_name"`
	CampaignDescription string `json:"campaign_description"`
	Message             string `json:"message"`
	Type                string `json:"type"`
	Status              string `json:"status"`
	Timestamp           string `json:"timestamp"`
}

// SearchChats performs a full-text search over recorded interactions, ranked
// by relevance descending and truncated to limit.
func (s *Service) SearchChats(ctx context.Context, query string, limit int) ([]ChatSearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	hits, err := s.store.SearchInteractions(ctx, query, limit)
	if err != nil {
		s.logger.Error("chat search failed",
			slog.String("query", query),
			slog.String("error", err.Error()))
		return nil, apperrors.SearchUnavailable(err)
	}

	results := make([]ChatSearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, ChatSearchResult{
			StudentName:         hit.StudentName,
			CampaignDescription: hit.CampaignDescription,
			Message:             hit.Message,
			Type:                string(hit.Type),
			Status:              string(hit.Status),
			Timestamp:           time.Unix(hit.CreatedTs, 0).UTC().Format(time.RFC3339),
		})
	}
	return results, nil
}
