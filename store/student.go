package store

// Student is an externally-sourced outreach recipient. The campaign engine
// reads students but never mutates them.
type Student struct {
	ID        int32
	UID       string
	FirstName string
	LastName  string
	Phone     string
	CreatedTs int64
}

type FindStudent struct {
	ID  *int32
	UID *string
}
