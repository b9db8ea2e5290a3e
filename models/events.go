package models

import "time"

// EventType names a catalog mutation.
type EventType string

const (
	EventImport EventType = "import"
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// CatalogEvent tells observers that the catalog changed.
type CatalogEvent struct {
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Count      int       `json:"count"`
	ProductIDs []string  `json:"productIds,omitempty"`
}
