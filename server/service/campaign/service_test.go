package campaign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/misciohq/miscio/internal/errors"
	"github.com/misciohq/miscio/internal/profile"
	"github.com/misciohq/miscio/plugin/sms"
	"github.com/misciohq/miscio/store"
)

// memDriver is an in-memory store.Driver covering what the campaign service
// touches.
type memDriver struct {
	mu           sync.Mutex
	nextID       int32
	campaigns    []*store.Campaign
	interactions []*store.Interaction
	students     []*store.Student

	createCampaignErr error
	listStudentsErr   error
	searchErr         error
}

func (d *memDriver) Close() error                    { return nil }
func (d *memDriver) Migrate(ctx context.Context) error { return nil }

func (d *memDriver) CreateAdmin(ctx context.Context, create *store.Admin) (*store.Admin, error) {
	return nil, errors.New("not implemented")
}
func (d *memDriver) GetAdmin(ctx context.Context, find *store.FindAdmin) (*store.Admin, error) {
	return nil, errors.New("not implemented")
}
func (d *memDriver) UpdateAdmin(ctx context.Context, update *store.UpdateAdmin) (*store.Admin, error) {
	return nil, errors.New("not implemented")
}
func (d *memDriver) CreateThread(ctx context.Context, create *store.Thread) (*store.Thread, error) {
	return nil, errors.New("not implemented")
}
func (d *memDriver) GetThread(ctx context.Context, find *store.FindThread) (*store.Thread, error) {
	return nil, errors.New("not implemented")
}
func (d *memDriver) ListThreads(ctx context.Context, find *store.FindThread) ([]*store.Thread, error) {
	return nil, errors.New("not implemented")
}
func (d *memDriver) AppendThreadMessage(ctx context.Context, append *store.AppendMessage) (*store.Message, error) {
	return nil, errors.New("not implemented")
}
func (d *memDriver) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	return nil, errors.New("not implemented")
}

func (d *memDriver) CreateCampaign(ctx context.Context, create *store.Campaign) (*store.Campaign, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createCampaignErr != nil {
		return nil, d.createCampaignErr
	}
	for _, c := range d.campaigns {
		if c.Status == store.CampaignStatusActive {
			c.Status = store.CampaignStatusInactive
		}
	}
	d.nextID++
	campaign := *create
	campaign.ID = d.nextID
	campaign.Status = store.CampaignStatusActive
	d.campaigns = append(d.campaigns, &campaign)
	return &campaign, nil
}

func (d *memDriver) GetCampaign(ctx context.Context, find *store.FindCampaign) (*store.Campaign, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.campaigns {
		if find.ID != nil && c.ID != *find.ID {
			continue
		}
		if find.UID != nil && c.UID != *find.UID {
			continue
		}
		return c, nil
	}
	return nil, nil
}

func (d *memDriver) ListCampaigns(ctx context.Context, find *store.FindCampaign) ([]*store.Campaign, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*store.Campaign(nil), d.campaigns...), nil
}

func (d *memDriver) CreateInteraction(ctx context.Context, create *store.Interaction) (*store.Interaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	interaction := *create
	interaction.ID = d.nextID
	d.interactions = append(d.interactions, &interaction)
	return &interaction, nil
}

func (d *memDriver) CountInteractions(ctx context.Context, find *store.FindInteraction) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var count int64
	for _, i := range d.interactions {
		if find.CampaignID != nil && i.CampaignID != *find.CampaignID {
			continue
		}
		if find.Type != nil && i.Type != *find.Type {
			continue
		}
		if find.Status != nil && i.Status != *find.Status {
			continue
		}
		count++
	}
	return count, nil
}

func (d *memDriver) SearchInteractions(ctx context.Context, query string, limit int) ([]*store.InteractionHit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.searchErr != nil {
		return nil, d.searchErr
	}
	var hits []*store.InteractionHit
	for _, i := range d.interactions {
		if !strings.Contains(strings.ToLower(i.Message), strings.ToLower(query)) {
			continue
		}
		hits = append(hits, &store.InteractionHit{
			StudentName:         "Student",
			CampaignDescription: "Campaign",
			Message:             i.Message,
			Type:                i.Type,
			Status:              i.Status,
			CreatedTs:           i.CreatedTs,
			Score:               1,
		})
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (d *memDriver) CreateStudent(ctx context.Context, create *store.Student) (*store.Student, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	student := *create
	student.ID = d.nextID
	d.students = append(d.students, &student)
	return &student, nil
}

func (d *memDriver) GetStudent(ctx context.Context, find *store.FindStudent) (*store.Student, error) {
	return nil, nil
}

func (d *memDriver) ListStudents(ctx context.Context) ([]*store.Student, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listStudentsErr != nil {
		return nil, d.listStudentsErr
	}
	return append([]*store.Student(nil), d.students...), nil
}

func newTestService(driver *memDriver, messenger sms.Messenger) *Service {
	ts := store.New(driver, &profile.Profile{Mode: "dev"})
	return NewService(ts, messenger, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedStudents(d *memDriver, n int) {
	for i := 0; i < n; i++ {
		d.students = append(d.students, &store.Student{
			ID:        int32(1000 + i),
			FirstName: fmt.Sprintf("Student%d", i),
			Phone:     fmt.Sprintf("+1555000%04d", i),
		})
	}
}

func TestLaunch_BroadcastsToAllStudents(t *testing.T) {
	driver := &memDriver{}
	seedStudents(driver, 3)
	messenger := &sms.MockMessenger{}
	svc := newTestService(driver, messenger)

	campaign, err := svc.Launch(context.Background(), "midterm reminders are out", 1)
	require.NoError(t, err)
	assert.Equal(t, store.CampaignStatusActive, campaign.Status)

	sends := messenger.Sends()
	require.Len(t, sends, 3)
	assert.Equal(t, "Hi Student0, midterm reminders are out", sends[0].Body)

	require.Len(t, driver.interactions, 3)
	for _, i := range driver.interactions {
		assert.Equal(t, campaign.ID, i.CampaignID)
		assert.Equal(t, store.InteractionTypeInitial, i.Type)
		assert.Equal(t, store.DeliveryStatusSent, i.Status)
	}
}

func TestLaunch_DeactivatesPreviousCampaign(t *testing.T) {
	driver := &memDriver{}
	messenger := &sms.MockMessenger{}
	svc := newTestService(driver, messenger)

	first, err := svc.Launch(context.Background(), "first", 1)
	require.NoError(t, err)
	second, err := svc.Launch(context.Background(), "second", 1)
	require.NoError(t, err)

	var active int
	for _, c := range driver.campaigns {
		if c.Status == store.CampaignStatusActive {
			active++
			assert.Equal(t, second.ID, c.ID)
		}
	}
	assert.Equal(t, 1, active)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestLaunch_SendFailureDoesNotAbortBroadcast(t *testing.T) {
	driver := &memDriver{}
	seedStudents(driver, 4)
	failingPhone := driver.students[1].Phone
	messenger := &sms.MockMessenger{
		SendFunc: func(ctx context.Context, to, body string) (string, error) {
			if to == failingPhone {
				return "", errors.New("carrier rejected")
			}
			return "sid", nil
		},
	}
	svc := newTestService(driver, messenger)

	_, err := svc.Launch(context.Background(), "field trip forms", 1)
	require.NoError(t, err)

	require.Len(t, driver.interactions, 4)
	var sent, failed int
	for _, i := range driver.interactions {
		switch i.Status {
		case store.DeliveryStatusSent:
			sent++
		case store.DeliveryStatusFailed:
			failed++
		}
	}
	assert.Equal(t, 3, sent)
	assert.Equal(t, 1, failed)
}

func TestLaunch_CampaignCreationFailure(t *testing.T) {
	driver := &memDriver{createCampaignErr: errors.New("db is down")}
	svc := newTestService(driver, &sms.MockMessenger{})

	_, err := svc.Launch(context.Background(), "never happens", 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCampaignCreationFailed))
	assert.Empty(t, driver.interactions)
}

func TestLaunch_StudentListFailure(t *testing.T) {
	driver := &memDriver{listStudentsErr: errors.New("db is down")}
	messenger := &sms.MockMessenger{}
	svc := newTestService(driver, messenger)

	_, err := svc.Launch(context.Background(), "never broadcast", 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCampaignCreationFailed))
	assert.Empty(t, messenger.Sends())
}

func TestStats(t *testing.T) {
	driver := &memDriver{}
	driver.interactions = []*store.Interaction{
		{CampaignID: 1, Type: store.InteractionTypeInitial, Status: store.DeliveryStatusSent},
		{CampaignID: 1, Type: store.InteractionTypeInitial, Status: store.DeliveryStatusFailed},
		{CampaignID: 1, Type: store.InteractionTypeResponse, Status: store.DeliveryStatusSent},
		{CampaignID: 2, Type: store.InteractionTypeInitial, Status: store.DeliveryStatusSent},
	}
	svc := newTestService(driver, &sms.MockMessenger{})

	stats, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalStudents)
	assert.Equal(t, int64(1), stats.ResponsesReceived)
	assert.InDelta(t, 33.33, stats.ResponseRate, 0.01)
}

func TestSearchChats_WrapsStoreFailure(t *testing.T) {
	driver := &memDriver{searchErr: errors.New("index corrupted")}
	svc := newTestService(driver, &sms.MockMessenger{})

	_, err := svc.SearchChats(context.Background(), "homework", 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSearchUnavailable))
}

func TestSearchChats_DefaultsLimit(t *testing.T) {
	driver := &memDriver{}
	for i := 0; i < DefaultSearchLimit+20; i++ {
		driver.interactions = append(driver.interactions, &store.Interaction{
			CampaignID: 1,
			Message:    fmt.Sprintf("homework update %d", i),
			Type:       store.InteractionTypeInitial,
			Status:     store.DeliveryStatusSent,
		})
	}
	svc := newTestService(driver, &sms.MockMessenger{})

	results, err := svc.SearchChats(context.Background(), "homework", 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultSearchLimit)
}

func TestRunCampaignTool(t *testing.T) {
	driver := &memDriver{}
	seedStudents(driver, 1)
	svc := newTestService(driver, &sms.MockMessenger{})

	fn := svc.RunCampaignTool(7)

	result, err := fn(context.Background(), []byte(`{"campaign_type":"reminder","campaign_description":"library books due"}`))
	require.NoError(t, err)
	payload, ok := result.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "success", payload["status"])
	assert.Contains(t, payload["message"], "library books due")

	require.Len(t, driver.campaigns, 1)
	assert.Equal(t, int32(7), driver.campaigns[0].AdminID)
}

func TestRunCampaignTool_RejectsMissingDescription(t *testing.T) {
	svc := newTestService(&memDriver{}, &sms.MockMessenger{})
	fn := svc.RunCampaignTool(1)

	_, err := fn(context.Background(), []byte(`{"campaign_type":"reminder"}`))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))
}

func TestQueryChatsTool(t *testing.T) {
	driver := &memDriver{}
	driver.interactions = []*store.Interaction{
		{CampaignID: 1, Message: "Hi Alex, homework is due Friday", Type: store.InteractionTypeInitial, Status: store.DeliveryStatusSent},
		{CampaignID: 1, Message: "Hi Sam, welcome aboard", Type: store.InteractionTypeInitial, Status: store.DeliveryStatusSent},
	}
	svc := newTestService(driver, &sms.MockMessenger{})

	fn := svc.QueryChatsTool()
	result, err := fn(context.Background(), []byte(`{"query":"homework"}`))
	require.NoError(t, err)

	payload, ok := result.(map[string]any)
	require.True(t, ok)
	results, ok := payload["results"].([]ChatSearchResult)
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Message, "homework")
}

func TestQueryChatsTool_RejectsEmptyQuery(t *testing.T) {
	svc := newTestService(&memDriver{}, &sms.MockMessenger{})
	fn := svc.QueryChatsTool()

	_, err := fn(context.Background(), []byte(`{"query":""}`))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))
}
