package campaign

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/misciohq/miscio/internal/errors"
	"github.com/misciohq/miscio/server/assistant"
)

type runCampaignArgs struct {
	CampaignType        string `json:"campaign_type"`
	CampaignDescription string `json:"campaign_description"`
}

type queryChatsArgs struct {
	Query      string `json:"query"`
	CampaignID string `json:"campaign_id"`
}

// RunCampaignTool returns the tool handler for the assistant's run_campaign
// function, bound to the invoking operator.
func (s *Service) RunCampaignTool(adminID int32) assistant.ToolFunc {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var parsed runCampaignArgs
		if err := json.Unmarshal(args, &parsed); err != nil {
			return nil, apperrors.ToolInvocation("invalid run_campaign arguments", err)
		}
		if parsed.CampaignDescription == "" {
			return nil, apperrors.InvalidArgument("campaign_description is required")
		}

		if _, err := s.Launch(ctx, parsed.CampaignDescription, adminID); err != nil {
			return nil, err
		}
		return map[string]string{
			"status":  "success",
			"message": fmt.Sprintf("Campaign started successfully with description: %s", parsed.CampaignDescription),
		}, nil
	}
}

// QueryChatsTool returns the tool handler for the assistant's
// query_student_chats function.
func (s *Service) QueryChatsTool() assistant.ToolFunc {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var parsed queryChatsArgs
		if err := json.Unmarshal(args, &parsed); err != nil {
			return nil, apperrors.ToolInvocation("invalid query_student_chats arguments", err)
		}
		if parsed.Query == "" {
			return nil, apperrors.InvalidArgument("query is required")
		}

		results, err := s.SearchChats(ctx, parsed.Query, DefaultSearchLimit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"results": results}, nil
	}
}
