package transfer

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/moyoez/reelpost/types"
)

// Stage names one of the three remote operations of a run.
type Stage string

const (
	StageTranscode Stage = "transcode"
	StageThumbnail Stage = "thumbnail"
	StageCommit    Stage = "commit"
)

type ErrorKind int

const (
	KindNetwork   ErrorKind = iota + 1 // no server response
	KindServer                         // server answered with an error
	KindCancelled                      // token observed cancelled
	KindSource                         // local media could not be read
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindCancelled:
		return "cancelled"
	case KindSource:
		return "source"
	default:
		return "unknown"
	}
}

const (
	GenericErrorMessage   = "Something went wrong during upload."
	UploadFailedMessage   = "Upload failed"
	CommitFailedMessage   = "Failed to save post"
	NetworkErrorMessage   = "Network error"
	CancelledErrorMessage = "Upload cancelled"
)

// ErrCancelled matches every cancelled StageError via errors.Is.
var ErrCancelled = errors.New("upload cancelled")

// StageError is the error returned by every stage.
type StageError struct {
	Stage      Stage
	Kind       ErrorKind
	Message    string // user-facing
	StatusCode int    // set for KindServer
	Err        error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return target == ErrCancelled && e.Kind == KindCancelled
}

func NewNetworkError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Kind: KindNetwork, Message: NetworkErrorMessage, Err: err}
}

func NewServerError(stage Stage, statusCode int, message string) *StageError {
	return &StageError{Stage: stage, Kind: KindServer, Message: message, StatusCode: statusCode}
}

func NewCancelledError(stage Stage) *StageError {
	return &StageError{Stage: stage, Kind: KindCancelled, Message: CancelledErrorMessage}
}

func NewSourceError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Kind: KindSource, Message: "Could not read the video", Err: err}
}

// IsCancelled reports whether err is a cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// UserMessage returns the text to show the user for a failed run.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) && stageErr.Message != "" {
		return stageErr.Message
	}
	return GenericErrorMessage
}

// serverErrorMessage pulls {error} out of a response body, else returns fallback.
func serverErrorMessage(body []byte, fallback string) string {
	if len(body) == 0 {
		return fallback
	}
	var errorResponse types.ErrorResponse
	if err := sonic.Unmarshal(body, &errorResponse); err == nil && errorResponse.Error != "" {
		return errorResponse.Error
	}
	return fallback
}
