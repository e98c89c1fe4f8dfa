package types

// UserUploadRequest is the body of POST /api/self/v1/upload.
type UserUploadRequest struct {
	Video           string   `json:"video"` // path or file:// URL
	DurationSeconds float64  `json:"durationSeconds"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	Caption         string   `json:"caption"`
	Tags            []string `json:"tags,omitempty"`
	Thumbnail       string   `json:"thumbnail,omitempty"`    // local thumbnail path
	ThumbnailURL    string   `json:"thumbnailUrl,omitempty"` // remote fallback image
}

// UserUploadResponse is returned when a run has been started.
type UserUploadResponse struct {
	RunID string   `json:"runId"`
	State RunState `json:"state"`
}

// RunSnapshot is the status view of a run served by the control API.
type RunSnapshot struct {
	RunID    string        `json:"runId"`
	State    RunState      `json:"state"`
	Progress float64       `json:"progress"`
	Message  string        `json:"message,omitempty"`
	Record   *UploadRecord `json:"record,omitempty"`
}
