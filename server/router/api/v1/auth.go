package v1

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/misciohq/miscio/internal/auth"
	"github.com/misciohq/miscio/store"
)

type adminContextKey string

const adminKey adminContextKey = "admin"

func adminFrom(c echo.Context) (*store.Admin, bool) {
	admin, ok := c.Get(string(adminKey)).(*store.Admin)
	return admin, ok
}

// authMiddleware verifies the bearer token and loads the operator into the
// request context.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing access token"})
		}

		claims, err := auth.ParseToken(s.Secret, token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid access token"})
		}

		admin, err := s.Store.GetAdmin(c.Request().Context(), &store.FindAdmin{UID: &claims.Subject})
		if err != nil || admin == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unknown operator"})
		}

		c.Set(string(adminKey), admin)
		return next(c)
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminResponse struct {
	UID         string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	AssistantID string `json:"assistant_id,omitempty"`
	ThreadID    string `json:"thread_id,omitempty"`
}

// RegisterAdmin creates a new operator account.
// POST /api/v1/auth/register
func (s *APIV1Service) RegisterAdmin(c echo.Context) error {
	ctx := c.Request().Context()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "username and password are required"})
	}

	existing, err := s.Store.GetAdmin(ctx, &store.FindAdmin{Username: &req.Username})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to register"})
	}
	if existing != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "username already registered"})
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to register"})
	}

	admin, err := s.Store.CreateAdmin(ctx, &store.Admin{
		UID:          shortuuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedTs:    time.Now().Unix(),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to register"})
	}

	return c.JSON(http.StatusOK, adminResponse{
		UID:      admin.UID,
		Username: admin.Username,
		Email:    admin.Email,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	AssistantID string `json:"assistant_id"`
	ThreadID    string `json:"thread_id"`
}

// Login authenticates an operator and provisions their assistant on first use.
// POST /api/v1/auth/login
func (s *APIV1Service) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request"})
	}

	admin, err := s.Store.GetAdmin(ctx, &store.FindAdmin{Username: &req.Username})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to log in"})
	}
	if admin == nil || !auth.VerifyPassword(req.Password, admin.PasswordHash) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "incorrect username or password"})
	}

	// Provision the assistant and its thread lazily on first login.
	if admin.AssistantID == "" || admin.ThreadID == "" {
		assistantID, threadID, err := s.Platform.ProvisionAssistant(ctx, admin.UID)
		if err != nil {
			s.Logger.Error("failed to provision assistant",
				slog.String("admin_uid", admin.UID),
				slog.String("error", err.Error()))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "error setting up admin assistant"})
		}
		admin, err = s.Store.UpdateAdmin(ctx, &store.UpdateAdmin{
			ID:          admin.ID,
			AssistantID: &assistantID,
			ThreadID:    &threadID,
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "error setting up admin assistant"})
		}
		s.Logger.Info("assistant provisioned",
			slog.String("admin_uid", admin.UID),
			slog.String("assistant_id", assistantID),
			slog.String("thread_id", threadID))
	}

	token, err := auth.GenerateToken(s.Secret, admin.UID, admin.AssistantID, admin.ThreadID, s.Profile.TokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to log in"})
	}

	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		AssistantID: admin.AssistantID,
		ThreadID:    admin.ThreadID,
	})
}
