package store

type CampaignStatus string

const (
	CampaignStatusActive   CampaignStatus = "active"
	CampaignStatusInactive CampaignStatus = "inactive"
)

// Campaign is a broadcast outreach effort. At most one campaign is active at a
// time; creating a new one deactivates all others in the same transaction.
type Campaign struct {
	ID          int32
	UID         string
	Description string
	AdminID     int32
	Status      CampaignStatus
	CreatedTs   int64
}

type FindCampaign struct {
	ID      *int32
	UID     *string
	AdminID *int32
	Status  *CampaignStatus
}

type InteractionType string

const (
	InteractionTypeInitial  InteractionType = "initial"
	InteractionTypeResponse InteractionType = "response"
)

type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// Interaction is one recorded outbound attempt (or inbound response) tied to a
// campaign and student. Rows are append-only.
type Interaction struct {
	ID         int32
	CampaignID int32
	StudentID  int32
	Message    string
	Type       InteractionType
	Status     DeliveryStatus
	CreatedTs  int64
}

type FindInteraction struct {
	CampaignID *int32
	StudentID  *int32
	Type       *InteractionType
	Status     *DeliveryStatus
}

// InteractionHit is one full-text search result over interaction messages,
// joined with student and campaign metadata.
type InteractionHit struct {
	StudentName         string
	CampaignDescription string
	Message             string
	Type                InteractionType
	Status              DeliveryStatus
	CreatedTs           int64
	// Score is the relevance score; results are ordered descending by it.
	Score float64
}
