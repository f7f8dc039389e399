package secondary

import "context"

// ChangeLog defines the secondary port for the audit trail of repository writes.
type ChangeLog interface {
	// Record appends one entry. The actor is taken from the context when the
	// record does not name one.
	Record(ctx context.Context, entry *ChangeRecord) error

	// List retrieves entries matching the given filters, newest first.
	List(ctx context.Context, filters ChangeFilters) ([]*ChangeRecord, error)
}

// ChangeRecord represents one logged repository write.
type ChangeRecord struct {
	ID        string
	ActorID   string
	Workspace string
	Action    string // "add", "set", "rename", "reorder", "delete"
	Target    string // path or id the write was addressed to
	Detail    string
	CreatedAt string
}

// ChangeFilters contains filter options for querying the change log.
type ChangeFilters struct {
	Workspace string
	// Subtree matches entries targeting this path or any path below it.
	Subtree string
	Limit   int
}
