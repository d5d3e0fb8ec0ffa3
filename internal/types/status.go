package types

// Status is a type for the row-level status of a resource in the database.
// This tracks the lifecycle of a row and determines whether it should be
// included in queries. Rows are never physically deleted; archival is a
// status change.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)
