package store

// Thread is the local record of a remote conversation thread. The UID is the
// platform-issued thread identifier.
type Thread struct {
	ID          int32
	UID         string
	AdminID     int32
	AssistantID string
	Title       string
	LastMessage string
	CreatedTs   int64
	UpdatedTs   int64
}

type FindThread struct {
	ID      *int32
	UID     *string
	AdminID *int32
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one entry of a thread's append-only message log.
type Message struct {
	ID        int32
	ThreadID  int32
	Role      MessageRole
	Content   string
	CreatedTs int64
}

type FindMessage struct {
	ThreadID *int32
}

// AppendMessage appends a message to a thread and updates the thread's
// last-activity metadata in the same transaction.
type AppendMessage struct {
	ThreadID  int32
	Role      MessageRole
	Content   string
	CreatedTs int64
}
