package types

import "time"

// RunState is the state of one upload orchestration run.
type RunState string

const (
	RunStateIdle                RunState = "idle"
	RunStateSubmitting          RunState = "submitting"
	RunStatePublishingThumbnail RunState = "publishing_thumbnail"
	RunStateCommitting          RunState = "committing"
	RunStateCompleted           RunState = "completed"
	RunStateCancelled           RunState = "cancelled"
	RunStateFailed              RunState = "failed"
)

// IsTerminal reports whether no further transition can leave s.
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateCompleted, RunStateCancelled, RunStateFailed:
		return true
	default:
		return false
	}
}

// RunEvent is emitted to observers on every state transition and progress advance.
type RunEvent struct {
	RunID    string        `json:"runId"`
	State    RunState      `json:"state"`
	Progress float64       `json:"progress"`
	Message  string        `json:"message,omitempty"`
	Record   *UploadRecord `json:"record,omitempty"` // set on the completed event
	Time     time.Time     `json:"time"`
}

// Outcome is the terminal result of a run.
type Outcome struct {
	RunID    string        `json:"runId"`
	State    RunState      `json:"state"`
	Progress float64       `json:"progress"`
	Message  string        `json:"message,omitempty"` // user-facing, set only for failed runs
	Record   *UploadRecord `json:"record,omitempty"`
	Err      error         `json:"-"`
}
