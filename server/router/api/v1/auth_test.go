package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misciohq/miscio/internal/auth"
	"github.com/misciohq/miscio/internal/profile"
	"github.com/misciohq/miscio/plugin/sms"
	"github.com/misciohq/miscio/server/assistant"
	"github.com/misciohq/miscio/server/service/campaign"
	"github.com/misciohq/miscio/store"
)

// memDriver is an in-memory store.Driver covering the admin, thread, and
// message surface the handlers touch.
type memDriver struct {
	mu       sync.Mutex
	nextID   int32
	admins   []*store.Admin
	threads  []*store.Thread
	messages []*store.Message
}

func (d *memDriver) Close() error                      { return nil }
func (d *memDriver) Migrate(ctx context.Context) error { return nil }

func (d *memDriver) CreateAdmin(ctx context.Context, create *store.Admin) (*store.Admin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	admin := *create
	admin.ID = d.nextID
	d.admins = append(d.admins, &admin)
	return &admin, nil
}

func (d *memDriver) GetAdmin(ctx context.Context, find *store.FindAdmin) (*store.Admin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.admins {
		if find.ID != nil && a.ID != *find.ID {
			continue
		}
		if find.UID != nil && a.UID != *find.UID {
			continue
		}
		if find.Username != nil && a.Username != *find.Username {
			continue
		}
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (d *memDriver) UpdateAdmin(ctx context.Context, update *store.UpdateAdmin) (*store.Admin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.admins {
		if a.ID != update.ID {
			continue
		}
		if update.AssistantID != nil {
			a.AssistantID = *update.AssistantID
		}
		if update.ThreadID != nil {
			a.ThreadID = *update.ThreadID
		}
		copied := *a
		return &copied, nil
	}
	return nil, errors.New("admin not found")
}

func (d *memDriver) CreateThread(ctx context.Context, create *store.Thread) (*store.Thread, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	thread := *create
	thread.ID = d.nextID
	d.threads = append(d.threads, &thread)
	return &thread, nil
}

func (d *memDriver) GetThread(ctx context.Context, find *store.FindThread) (*store.Thread, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, th := range d.threads {
		if find.UID != nil && th.UID != *find.UID {
			continue
		}
		if find.ID != nil && th.ID != *find.ID {
			continue
		}
		copied := *th
		return &copied, nil
	}
	return nil, nil
}

func (d *memDriver) ListThreads(ctx context.Context, find *store.FindThread) ([]*store.Thread, error) {
	return append([]*store.Thread(nil), d.threads...), nil
}

func (d *memDriver) AppendThreadMessage(ctx context.Context, appendMsg *store.AppendMessage) (*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	message := &store.Message{
		ID:        d.nextID,
		ThreadID:  appendMsg.ThreadID,
		Role:      appendMsg.Role,
		Content:   appendMsg.Content,
		CreatedTs: appendMsg.CreatedTs,
	}
	d.messages = append(d.messages, message)
	for _, th := range d.threads {
		if th.ID == appendMsg.ThreadID {
			th.LastMessage = appendMsg.Content
			th.UpdatedTs = appendMsg.CreatedTs
		}
	}
	return message, nil
}

func (d *memDriver) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*store.Message
	for _, m := range d.messages {
		if find.ThreadID != nil && m.ThreadID != *find.ThreadID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (d *memDriver) CreateCampaign(ctx context.Context, create *store.Campaign) (*store.Campaign, error) {
	return nil, errors.New("not implemented")
}
func (d *memDriver) GetCampaign(ctx context.Context, find *store.FindCampaign) (*store.Campaign, error) {
	return nil, nil
}
func (d *memDriver) ListCampaigns(ctx context.Context, find *store.FindCampaign) ([]*store.Campaign, error) {
	return nil, nil
}
func (d *memDriver) CreateInteraction(ctx context.Context, create *store.Interaction) (*store.Interaction, error) {
	return nil, errors.New("not implemented")
}
func (d *memDriver) CountInteractions(ctx context.Context, find *store.FindInteraction) (int64, error) {
	return 0, nil
}
func (d *memDriver) SearchInteractions(ctx context.Context, query string, limit int) ([]*store.InteractionHit, error) {
	return nil, nil
}
func (d *memDriver) CreateStudent(ctx context.Context, create *store.Student) (*store.Student, error) {
	return nil, errors.New("not implemented")
}
func (d *memDriver) GetStudent(ctx context.Context, find *store.FindStudent) (*store.Student, error) {
	return nil, nil
}
func (d *memDriver) ListStudents(ctx context.Context) ([]*store.Student, error) {
	return nil, nil
}

// provisionPlatform stubs the platform surface the auth handlers reach.
type provisionPlatform struct {
	provisionErr error
	provisioned  int
}

func (p *provisionPlatform) ProvisionAssistant(ctx context.Context, adminName string) (string, string, error) {
	if p.provisionErr != nil {
		return "", "", p.provisionErr
	}
	p.provisioned++
	return "asst_test", "thread_test", nil
}
func (p *provisionPlatform) CreateThread(ctx context.Context) (string, error) { return "thread_test", nil }
func (p *provisionPlatform) CreateMessage(ctx context.Context, threadID, text string) error {
	return nil
}
func (p *provisionPlatform) CreateRun(ctx context.Context, threadID, assistantID string) (*assistant.Run, error) {
	return nil, errors.New("not implemented")
}
func (p *provisionPlatform) RetrieveRun(ctx context.Context, threadID, runID string) (*assistant.Run, error) {
	return nil, errors.New("not implemented")
}
func (p *provisionPlatform) ListRuns(ctx context.Context, threadID string, limit int) ([]*assistant.Run, error) {
	return nil, nil
}
func (p *provisionPlatform) CancelRun(ctx context.Context, threadID, runID string) error { return nil }
func (p *provisionPlatform) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) error {
	return nil
}
func (p *provisionPlatform) ListMessages(ctx context.Context, threadID string, limit int) ([]*assistant.ThreadMessage, error) {
	return nil, nil
}

func newTestService(t *testing.T, driver store.Driver, platform assistant.Platform) (*APIV1Service, *echo.Echo) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	testProfile := &profile.Profile{Mode: "dev", Secret: "test-secret", TokenTTL: time.Hour}
	ts := store.New(driver, testProfile)
	t.Cleanup(func() { _ = ts.Close() })

	campaignService := campaign.NewService(ts, &sms.MockMessenger{}, logger)
	orchestrator := assistant.NewOrchestrator(platform, logger)
	svc := NewAPIV1Service(testProfile.Secret, testProfile, ts, logger, platform, orchestrator, campaignService)

	e := echo.New()
	svc.Register(e)
	return svc, e
}

func doJSON(e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	driver := &memDriver{}
	platform := &provisionPlatform{}
	_, e := newTestService(t, driver, platform)

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "principal",
		"email":    "principal@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "principal",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
		AssistantID string `json:"assistant_id"`
		ThreadID    string `json:"thread_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "asst_test", resp.AssistantID)
	assert.Equal(t, "thread_test", resp.ThreadID)
	assert.Equal(t, 1, platform.provisioned)

	// A second login reuses the provisioned assistant.
	rec = doJSON(e, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "principal",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, platform.provisioned)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	driver := &memDriver{}
	_, e := newTestService(t, driver, &provisionPlatform{})

	body := map[string]string{"username": "principal", "password": "hunter22"}
	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	driver := &memDriver{}
	_, e := newTestService(t, driver, &provisionPlatform{})

	doJSON(e, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "principal", "password": "hunter22",
	})

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "principal", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_ProvisionFailure(t *testing.T) {
	driver := &memDriver{}
	platform := &provisionPlatform{provisionErr: errors.New("platform is down")}
	_, e := newTestService(t, driver, platform)

	doJSON(e, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "principal", "password": "hunter22",
	})

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "principal", "password": "hunter22",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	driver := &memDriver{}
	_, e := newTestService(t, driver, &provisionPlatform{})

	// No token.
	rec := doJSON(e, http.MethodGet, "/api/v1/chat/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = doJSON(e, http.MethodGet, "/api/v1/chat/history", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with the wrong secret.
	forged, err := auth.GenerateToken("other-secret", "admin-1", "", "", time.Hour)
	require.NoError(t, err)
	rec = doJSON(e, http.MethodGet, "/api/v1/chat/history", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetChatHistory(t *testing.T) {
	driver := &memDriver{}
	platform := &provisionPlatform{}
	_, e := newTestService(t, driver, platform)

	doJSON(e, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "principal", "password": "hunter22",
	})
	rec := doJSON(e, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "principal", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	// Empty history before any exchange.
	rec = doJSON(e, http.MethodGet, "/api/v1/chat/history", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Empty(t, history.Messages)

	// Seed a persisted exchange and read it back.
	threadUID := "thread_test"
	thread, err := driver.CreateThread(context.Background(), &store.Thread{UID: threadUID, AdminID: 1})
	require.NoError(t, err)
	_, err = driver.AppendThreadMessage(context.Background(), &store.AppendMessage{
		ThreadID: thread.ID, Role: store.MessageRoleUser, Content: "hello", CreatedTs: time.Now().Unix(),
	})
	require.NoError(t, err)
	_, err = driver.AppendThreadMessage(context.Background(), &store.AppendMessage{
		ThreadID: thread.ID, Role: store.MessageRoleAssistant, Content: "hi there", CreatedTs: time.Now().Unix(),
	})
	require.NoError(t, err)

	rec = doJSON(e, http.MethodGet, "/api/v1/chat/history", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "user", history.Messages[0].Role)
	assert.Equal(t, "hi there", history.Messages[1].Content)
}
