package dto

// WebhookRequest is the direct webhook trigger body
type WebhookRequest struct {
	ResponseID string `json:"response_id" binding:"required"`
}

// WebhookAck acknowledges an accepted trigger. Processing happens in the
// background; the caller observes the outcome by polling the record.
type WebhookAck struct {
	Status     string `json:"status"`
	ResponseID string `json:"response_id"`
	Message    string `json:"message"`
}

// StoreEvent is a native change event pushed by the record store
// (INSERT/UPDATE/DELETE on a table).
type StoreEvent struct {
	Type      string         `json:"type"`
	Table     string         `json:"table"`
	Schema    string         `json:"schema"`
	Record    map[string]any `json:"record"`
	OldRecord map[string]any `json:"old_record,omitempty"`
}

// IgnoredResponse explains why a store event produced no work
type IgnoredResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}
