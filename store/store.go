package store

import (
	"context"
	"fmt"
	"time"

	"github.com/misciohq/miscio/internal/profile"
	"github.com/misciohq/miscio/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache for admin lookups; every chat request resolves the operator.
	adminCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		adminCache: cache.New(cache.Config{
			DefaultTTL:      10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxItems:        1000,
		}),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	s.adminCache.Close()
	return s.driver.Close()
}

func (s *Store) CreateAdmin(ctx context.Context, create *Admin) (*Admin, error) {
	admin, err := s.driver.CreateAdmin(ctx, create)
	if err != nil {
		return nil, err
	}
	s.adminCache.Set(adminCacheKey(admin.UID), admin)
	return admin, nil
}

func (s *Store) GetAdmin(ctx context.Context, find *FindAdmin) (*Admin, error) {
	if find.UID != nil {
		if v, ok := s.adminCache.Get(adminCacheKey(*find.UID)); ok {
			return v.(*Admin), nil
		}
	}
	admin, err := s.driver.GetAdmin(ctx, find)
	if err != nil {
		return nil, err
	}
	if admin != nil {
		s.adminCache.Set(adminCacheKey(admin.UID), admin)
	}
	return admin, nil
}

func (s *Store) UpdateAdmin(ctx context.Context, update *UpdateAdmin) (*Admin, error) {
	admin, err := s.driver.UpdateAdmin(ctx, update)
	if err != nil {
		return nil, err
	}
	s.adminCache.Set(adminCacheKey(admin.UID), admin)
	return admin, nil
}

func (s *Store) CreateThread(ctx context.Context, create *Thread) (*Thread, error) {
	return s.driver.CreateThread(ctx, create)
}

func (s *Store) GetThread(ctx context.Context, find *FindThread) (*Thread, error) {
	return s.driver.GetThread(ctx, find)
}

func (s *Store) ListThreads(ctx context.Context, find *FindThread) ([]*Thread, error) {
	return s.driver.ListThreads(ctx, find)
}

func (s *Store) AppendThreadMessage(ctx context.Context, append *AppendMessage) (*Message, error) {
	return s.driver.AppendThreadMessage(ctx, append)
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

func (s *Store) CreateCampaign(ctx context.Context, create *Campaign) (*Campaign, error) {
	return s.driver.CreateCampaign(ctx, create)
}

func (s *Store) GetCampaign(ctx context.Context, find *FindCampaign) (*Campaign, error) {
	return s.driver.GetCampaign(ctx, find)
}

func (s *Store) ListCampaigns(ctx context.Context, find *FindCampaign) ([]*Campaign, error) {
	return s.driver.ListCampaigns(ctx, find)
}

func (s *Store) CreateInteraction(ctx context.Context, create *Interaction) (*Interaction, error) {
	return s.driver.CreateInteraction(ctx, create)
}

func (s *Store) CountInteractions(ctx context.Context, find *FindInteraction) (int64, error) {
	return s.driver.CountInteractions(ctx, find)
}

func (s *Store) SearchInteractions(ctx context.Context, query string, limit int) ([]*InteractionHit, error) {
	return s.driver.SearchInteractions(ctx, query, limit)
}

func (s *Store) CreateStudent(ctx context.Context, create *Student) (*Student, error) {
	return s.driver.CreateStudent(ctx, create)
}

func (s *Store) GetStudent(ctx context.Context, find *FindStudent) (*Student, error) {
	return s.driver.GetStudent(ctx, find)
}

func (s *Store) ListStudents(ctx context.Context) ([]*Student, error) {
	return s.driver.ListStudents(ctx)
}

func adminCacheKey(uid string) string {
	return fmt.Sprintf("admin:%s", uid)
}
