package types

// Status is the row lifecycle of a persisted record. It is independent of
// the domain status (contract status, revision status) and decides whether a
// row is visible to queries at all.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)
