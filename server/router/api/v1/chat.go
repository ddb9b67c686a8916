package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/misciohq/miscio/internal/errors"
	"github.com/misciohq/miscio/internal/observability"
	"github.com/misciohq/miscio/server/assistant"
	"github.com/misciohq/miscio/store"
)

// chatTimeout bounds one assistant exchange end to end, including tool calls.
const chatTimeout = 2 * time.Minute

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// ProcessMessage sends an operator message to their assistant and returns the
// assistant's final reply. Both sides of the exchange are persisted to the
// local conversation log.
// POST /api/v1/chat/message
func (s *APIV1Service) ProcessMessage(c echo.Context) error {
	admin, ok := adminFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unknown operator"})
	}
	if admin.AssistantID == "" || admin.ThreadID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "assistant not provisioned, log in again"})
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	reqCtx := observability.NewRequestContext(s.Logger, admin.UID, admin.ThreadID)
	ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	dispatcher := assistant.NewDispatcher(s.Logger)
	dispatcher.Register("run_campaign", s.CampaignService.RunCampaignTool(admin.ID))
	dispatcher.Register("query_student_chats", s.CampaignService.QueryChatsTool())

	reqCtx.Info("chat message received")

	reply, err := s.Orchestrator.ProcessMessage(ctx, admin.ThreadID, admin.AssistantID, req.Message, dispatcher)
	if err != nil {
		reqCtx.Error("chat exchange failed", err,
			slog.String("code", string(apperrors.GetCodeFromError(err, apperrors.ErrCodePlatformUnavailable))))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "error processing message"})
	}

	s.persistExchange(c, admin, req.Message, reply)

	reqCtx.Info("chat exchange completed", slog.Int64("duration_ms", reqCtx.DurationMs()))
	return c.JSON(http.StatusOK, chatResponse{Reply: reply})
}

// persistExchange appends both sides of a completed exchange to the local
// conversation log. Persistence failures are logged, not surfaced: the
// exchange already happened.
func (s *APIV1Service) persistExchange(c echo.Context, admin *store.Admin, userText, assistantText string) {
	ctx := c.Request().Context()

	thread, err := s.Store.GetThread(ctx, &store.FindThread{UID: &admin.ThreadID})
	if err != nil {
		s.Logger.Error("failed to load thread", slog.String("thread_id", admin.ThreadID), slog.String("error", err.Error()))
		return
	}
	if thread == nil {
		now := time.Now().Unix()
		thread, err = s.Store.CreateThread(ctx, &store.Thread{
			UID:         admin.ThreadID,
			AdminID:     admin.ID,
			AssistantID: admin.AssistantID,
			Title:       "Assistant conversation",
			CreatedTs:   now,
			UpdatedTs:   now,
		})
		if err != nil {
			s.Logger.Error("failed to create thread", slog.String("thread_id", admin.ThreadID), slog.String("error", err.Error()))
			return
		}
	}

	now := time.Now().Unix()
	for _, msg := range []store.AppendMessage{
		{ThreadID: thread.ID, Role: store.MessageRoleUser, Content: userText, CreatedTs: now},
		{ThreadID: thread.ID, Role: store.MessageRoleAssistant, Content: assistantText, CreatedTs: now},
	} {
		if _, err := s.Store.AppendThreadMessage(ctx, &msg); err != nil {
			s.Logger.Error("failed to persist message",
				slog.String("thread_id", admin.ThreadID),
				slog.String("role", string(msg.Role)),
				slog.String("error", err.Error()))
		}
	}
}

type historyMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// GetChatHistory returns the locally persisted conversation log for the
// operator's thread, oldest first.
// GET /api/v1/chat/history
func (s *APIV1Service) GetChatHistory(c echo.Context) error {
	ctx := c.Request().Context()

	admin, ok := adminFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unknown operator"})
	}
	if admin.ThreadID == "" {
		return c.JSON(http.StatusOK, map[string]any{"messages": []historyMessage{}})
	}

	thread, err := s.Store.GetThread(ctx, &store.FindThread{UID: &admin.ThreadID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
	}
	if thread == nil {
		return c.JSON(http.StatusOK, map[string]any{"messages": []historyMessage{}})
	}

	messages, err := s.Store.ListMessages(ctx, &store.FindMessage{ThreadID: &thread.ID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
	}

	out := make([]historyMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, historyMessage{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: time.Unix(m.CreatedTs, 0).UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": out})
}
