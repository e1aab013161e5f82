package api

import "time"

// StatusResponse reports the daemon's live state. Status is "running"
// while the watcher is active and "stopped" otherwise; the remaining
// fields expose the toggles clients need without a config round trip.
type StatusResponse struct {
	Status          string   `json:"status"`
	Monitoring      bool     `json:"monitoring"`
	Watchlist       []string `json:"watchlist"`
	RenameByAI      bool     `json:"rename_by_ai"`
	RemoveDuplicate bool     `json:"remove_duplicate"`
	PID             int      `json:"pid"`
}

// RenameRequest asks for an on-demand AI rename of one file.
type RenameRequest struct {
	Path string `json:"file_path"`
}

// RenameResponse reports the outcome of an on-demand rename.
type RenameResponse struct {
	Success bool   `json:"success"`
	OldName string `json:"old_name"`
	NewName string `json:"new_name,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MonitorResponse acknowledges a start/stop request.
type MonitorResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Monitoring bool   `json:"monitoring"`
}

// HistoryEntry is one recorded task outcome.
type HistoryEntry struct {
	TaskID          string    `json:"task_id"`
	SourcePath      string    `json:"source_path"`
	DestinationPath string    `json:"destination_path,omitempty"`
	FinalName       string    `json:"final_name,omitempty"`
	Stage           string    `json:"stage"`
	FailureReason   string    `json:"failure_reason,omitempty"`
	DetectedAt      time.Time `json:"detected_at"`
	CompletedAt     time.Time `json:"completed_at"`
}

// HistoryResponse lists recent task outcomes, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// FieldErrorPayload mirrors one offending field in a rejected rules
// document.
type FieldErrorPayload struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationErrorResponse is returned with 422 when a config update is
// rejected. The active configuration is unchanged.
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Fields []FieldErrorPayload `json:"fields,omitempty"`
}
