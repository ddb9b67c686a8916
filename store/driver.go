package store

import (
	"context"
)

// Driver is an interface for the database driver.
type Driver interface {
	Close() error

	// Migrate applies the current schema to a fresh or existing database.
	Migrate(ctx context.Context) error

	// Admin model related methods.
	CreateAdmin(ctx context.Context, create *Admin) (*Admin, error)
	GetAdmin(ctx context.Context, find *FindAdmin) (*Admin, error)
	UpdateAdmin(ctx context.Context, update *UpdateAdmin) (*Admin, error)

	// Thread and message model related methods. AppendThreadMessage inserts the
	// message and updates the thread's last-activity metadata transactionally.
	CreateThread(ctx context.Context, create *Thread) (*Thread, error)
	GetThread(ctx context.Context, find *FindThread) (*Thread, error)
	ListThreads(ctx context.Context, find *FindThread) ([]*Thread, error)
	AppendThreadMessage(ctx context.Context, append *AppendMessage) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)

	// Campaign model related methods. CreateCampaign deactivates every active
	// campaign and inserts the new one as active in a single transaction.
	CreateCampaign(ctx context.Context, create *Campaign) (*Campaign, error)
	GetCampaign(ctx context.Context, find *FindCampaign) (*Campaign, error)
	ListCampaigns(ctx context.Context, find *FindCampaign) ([]*Campaign, error)

	// Interaction model related methods.
	CreateInteraction(ctx context.Context, create *Interaction) (*Interaction, error)
	CountInteractions(ctx context.Context, find *FindInteraction) (int64, error)
	// SearchInteractions performs full-text search over interaction messages,
	// ordered by descending relevance and truncated to limit.
	SearchInteractions(ctx context.Context, query string, limit int) ([]*InteractionHit, error)

	// Student model related methods.
	CreateStudent(ctx context.Context, create *Student) (*Student, error)
	GetStudent(ctx context.Context, find *FindStudent) (*Student, error)
	ListStudents(ctx context.Context) ([]*Student, error)
}
