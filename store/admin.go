package store

// Admin is an operator account that owns an assistant and a conversation thread.
type Admin struct {
	ID           int32
	UID          string
	Username     string
	Email        string
	PasswordHash string
	// AssistantID and ThreadID are empty until the assistant is provisioned on first login.
	AssistantID string
	ThreadID    string
	CreatedTs   int64
}

type FindAdmin struct {
	ID       *int32
	UID      *string
	Username *string
}

type UpdateAdmin struct {
	ID          int32
	AssistantID *string
	ThreadID    *string
}
