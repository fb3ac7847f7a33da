package models

import (
	"encoding/json"
	"time"
)

// Preference is one opaque per-user preference blob, keyed by strings like
// "metric_order.<contextId>". The value shape belongs to the caller.
type Preference struct {
	UserID    string          `json:"userId"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
