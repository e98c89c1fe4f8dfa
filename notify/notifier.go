package notify

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/moyoez/reelpost/pipeline"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/types"
)

const (
	TitleProcessing = "Processing..."
	TitleUploading  = "Uploading..."
	TitleCompleted  = "Upload Completed"
	TitleFailed     = "Upload Failed"
	TitleCancelled  = "Upload Cancelled"
)

// notifyQueueSize bounds the notifications waiting for delivery.
const notifyQueueSize = 32

// EnqueueTimeout bounds how long a state or terminal notification waits for
// queue space before it is dropped. OnRunEvent runs on the orchestrator's
// goroutine, so this is the longest a stalled socket peer can pause a run.
var EnqueueTimeout = time.Second

// NotifyHub receives every notification in addition to the unix socket.
type NotifyHub interface {
	Broadcast(notification *types.Notification)
}

// Sender delivers one notification. SendNotification is the default.
type Sender func(notification *types.Notification, socketPath string) error

// Notifier turns run events into notifications. It implements pipeline.Observer.
// Transfer progress inside the upload band is rate limited; state changes,
// milestones and terminal events always go out, in order.
type Notifier struct {
	socketPath string
	hub        NotifyHub
	send       Sender
	limiter    *rate.Limiter

	mu        sync.Mutex
	lastState types.RunState
	closed    bool

	queue chan *types.Notification
	done  chan struct{}
}

type NotifierOption func(*Notifier)

func WithHub(hub NotifyHub) NotifierOption {
	return func(n *Notifier) {
		n.hub = hub
	}
}

func WithSender(send Sender) NotifierOption {
	return func(n *Notifier) {
		if send != nil {
			n.send = send
		}
	}
}

// NewNotifier starts a notifier delivering to socketPath. perSecond <= 0 uses the default rate.
// Close must be called once the run is over to flush pending notifications.
func NewNotifier(socketPath string, perSecond int, opts ...NotifierOption) *Notifier {
	if perSecond <= 0 {
		perSecond = tool.DefaultNotifyRatePerSecond
	}
	n := &Notifier{
		socketPath: socketPath,
		send:       SendNotification,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		lastState:  types.RunStateIdle,
		queue:      make(chan *types.Notification, notifyQueueSize),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	go n.deliver()
	return n
}

func (n *Notifier) OnRunEvent(event types.RunEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	stateChanged := event.State != n.lastState
	n.lastState = event.State

	if !stateChanged && isTransferProgress(event) && !n.limiter.Allow() {
		return
	}
	notification := BuildNotification(event, stateChanged)
	if notification == nil {
		return
	}
	if notification.Type == types.NotifyTypeUploadProgress {
		select {
		case n.queue <- notification:
		default:
			tool.DefaultLogger.Debugf("[Notify] Queue full, dropping progress for run %s", event.RunID)
		}
		return
	}
	timer := time.NewTimer(EnqueueTimeout)
	defer timer.Stop()
	select {
	case n.queue <- notification:
	case <-timer.C:
		tool.DefaultLogger.Warnf("[Notify] Delivery stalled, dropping %s for run %s", notification.Type, event.RunID)
	}
}

// Close flushes queued notifications and stops delivery.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()
	<-n.done
}

func (n *Notifier) deliver() {
	defer close(n.done)
	for notification := range n.queue {
		if n.hub != nil {
			n.hub.Broadcast(notification)
		}
		if err := n.send(notification, n.socketPath); err != nil {
			tool.DefaultLogger.Debugf("[Notify] %s not delivered: %v", notification.Type, err)
		}
	}
}

// isTransferProgress reports whether event is an intermediate point of the video transfer.
func isTransferProgress(event types.RunEvent) bool {
	return event.State == types.RunStateSubmitting &&
		event.Progress > pipeline.ProgressTransferStart &&
		event.Progress < pipeline.ProgressTransferEnd
}

// BuildNotification maps a run event onto the notification sent for it.
// stateChanged marks the first event seen in event.State.
func BuildNotification(event types.RunEvent, stateChanged bool) *types.Notification {
	data := map[string]any{
		"runId":    event.RunID,
		"state":    string(event.State),
		"progress": event.Progress,
	}
	notification := &types.Notification{Data: data}

	switch event.State {
	case types.RunStateCompleted:
		notification.Type = types.NotifyTypeUploadEnd
		notification.Title = TitleCompleted
		notification.Message = fmt.Sprintf("Post saved: runId=%s", event.RunID)
		if event.Record != nil {
			data["record"] = event.Record
		}
	case types.RunStateFailed:
		notification.Type = types.NotifyTypeUploadFailed
		notification.Title = TitleFailed
		notification.Message = event.Message
	case types.RunStateCancelled:
		notification.Type = types.NotifyTypeUploadCancelled
		notification.Title = TitleCancelled
	case types.RunStateIdle:
		return nil
	default:
		notification.Title = stageTitle(event.State)
		switch {
		case stateChanged && event.State == types.RunStateSubmitting:
			notification.Type = types.NotifyTypeUploadStart
		case stateChanged:
			notification.Type = types.NotifyTypeUploadState
		default:
			notification.Type = types.NotifyTypeUploadProgress
		}
	}
	return notification
}

// stageTitle is "Processing..." while the video is being transcoded, "Uploading..." afterwards.
func stageTitle(state types.RunState) string {
	if state == types.RunStateSubmitting {
		return TitleProcessing
	}
	return TitleUploading
}
