// Package pipeline runs the three upload stages in order and turns their results
// into one progress value and one terminal outcome.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/moyoez/reelpost/thumbnail"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/transfer"
	"github.com/moyoez/reelpost/types"
)

// ErrRunInProgress is returned when Run is called while a run is still active.
var ErrRunInProgress = errors.New("an upload is already running")

type Submitter interface {
	Submit(ctx context.Context, asset types.MediaAsset, token *transfer.CancellationToken, onProgress func(float64)) (*types.TranscodeResult, error)
}

type Publisher interface {
	Publish(ctx context.Context, source thumbnail.Source, baseName string, token *transfer.CancellationToken) (*types.ThumbnailResult, error)
}

type Committer interface {
	Commit(ctx context.Context, record types.UploadRecord, token *transfer.CancellationToken) error
}

// Orchestrator owns the cancellation token and progress aggregator of its current run.
// Independent orchestrators share nothing.
type Orchestrator struct {
	submitter Submitter
	publisher Publisher
	committer Committer
	observer  Observer
	logger    *log.Logger

	// emitMu keeps progress updates and observer calls in order
	emitMu sync.Mutex

	mu       sync.Mutex
	runID    string
	used     bool
	running  bool
	state    types.RunState
	token    *transfer.CancellationToken
	progress *ProgressAggregator
	record   *types.UploadRecord
	outcome  *types.Outcome
}

type Option func(*Orchestrator)

func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRunID sets the id of the first run; later runs get generated ids.
func WithRunID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.runID = id
		}
	}
}

func New(submitter Submitter, publisher Publisher, committer Committer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		submitter: submitter,
		publisher: publisher,
		committer: committer,
		logger:    tool.DefaultLogger.WithPrefix("pipeline"),
		runID:     tool.GenerateShortRunID(),
		state:     types.RunStateIdle,
		token:     transfer.NewCancellationToken(),
		progress:  NewProgressAggregator(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewWithClient wires the HTTP stages around one client.
func NewWithClient(client *transfer.Client, thumbnailType string, opts ...Option) *Orchestrator {
	return New(
		transfer.NewTranscodeSubmitter(client),
		transfer.NewThumbnailPublisher(client, thumbnailType),
		transfer.NewMetadataCommitter(client),
		opts...,
	)
}

func (o *Orchestrator) RunID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.runID
}

func (o *Orchestrator) State() types.RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Progress() float64 {
	o.mu.Lock()
	p := o.progress
	o.mu.Unlock()
	return p.Value()
}

// Record returns the commit payload once it has been assembled.
func (o *Orchestrator) Record() *types.UploadRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.record
}

// Outcome returns the terminal outcome of the last finished run, if any.
func (o *Orchestrator) Outcome() *types.Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcome
}

// Cancel asks the current run to stop. It is safe to call at any time and more than once.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	token, runID := o.token, o.runID
	o.mu.Unlock()
	if !token.IsCancelled() {
		o.logger.Infof("[Run %s] Cancel requested", runID)
	}
	token.Cancel()
}

// Run executes one upload: transcode, thumbnail, commit. It blocks until the run is terminal.
// Calling Run again after a terminal outcome starts a fresh run with progress reset.
func (o *Orchestrator) Run(ctx context.Context, asset types.MediaAsset, meta types.UploadMetadata, thumb thumbnail.Source) types.Outcome {
	r, err := o.begin()
	if err != nil {
		o.logger.Warnf("[Run %s] Refusing to start: %v", o.RunID(), err)
		return types.Outcome{RunID: o.RunID(), State: types.RunStateFailed, Err: err, Message: err.Error(), Progress: o.Progress()}
	}
	o.logger.Infof("[Run %s] Starting upload of %s", r.id, asset.SourceLocation)

	// stage 1
	if !o.enter(r, types.RunStateSubmitting) {
		return o.finishCancelled(r, nil)
	}
	o.advance(r, r.progress.Begin)
	video, err := o.submitter.Submit(ctx, asset, r.token, func(f float64) {
		o.advance(r, func() (float64, bool) { return r.progress.Transfer(f) })
	})
	if err != nil {
		if transfer.IsCancelled(err) || r.token.IsCancelled() {
			return o.finishCancelled(r, nil)
		}
		return o.finishFailed(r, err, nil)
	}
	if r.token.IsCancelled() {
		return o.finishCancelled(r, video)
	}
	o.advance(r, r.progress.Acknowledge)

	// stage 2
	if !o.enter(r, types.RunStatePublishingThumbnail) {
		return o.finishCancelled(r, video)
	}
	thumbResult, err := o.publisher.Publish(ctx, thumb, tool.SourceBaseName(asset.SourceLocation), r.token)
	if err != nil {
		if transfer.IsCancelled(err) || r.token.IsCancelled() {
			return o.finishCancelled(r, video)
		}
		o.logger.Warnf("[Run %s] Thumbnail stage failed, continuing without thumbnail: %v", r.id, err)
		thumbResult = nil
	}
	o.advance(r, r.progress.ThumbnailResolved)

	// stage 3
	record := types.NewUploadRecord(asset, meta, *video, thumbResult)
	o.mu.Lock()
	o.record = &record
	o.mu.Unlock()
	if !o.enter(r, types.RunStateCommitting) {
		return o.finishCancelled(r, video)
	}
	if err := o.committer.Commit(ctx, record, r.token); err != nil {
		if transfer.IsCancelled(err) || r.token.IsCancelled() {
			return o.finishCancelled(r, video)
		}
		return o.finishFailed(r, err, video)
	}
	// an acknowledged commit completes the run even if cancel arrived in flight
	if r.token.IsCancelled() {
		o.logger.Infof("[Run %s] Cancel arrived after the post for %s was saved, completing", r.id, video.RemotePlaylistPath)
	}

	o.emitMu.Lock()
	if value, advanced := r.progress.Complete(); advanced {
		o.notify(types.RunEvent{RunID: r.id, State: types.RunStateCommitting, Progress: value, Time: time.Now()})
	}
	o.emitMu.Unlock()
	return o.finish(r, types.RunStateCompleted, nil)
}

// run is the per-run state captured when a run starts.
type run struct {
	id       string
	token    *transfer.CancellationToken
	progress *ProgressAggregator
}

func (o *Orchestrator) begin() (run, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return run{}, ErrRunInProgress
	}
	if o.used {
		o.runID = tool.GenerateShortRunID()
		o.token = transfer.NewCancellationToken()
		o.progress = NewProgressAggregator()
		o.record = nil
		o.outcome = nil
	}
	o.used = true
	o.running = true
	o.state = types.RunStateIdle
	return run{id: o.runID, token: o.token, progress: o.progress}, nil
}

// enter moves to state and reports whether work may begin, i.e. the token is still active.
func (o *Orchestrator) enter(r run, state types.RunState) bool {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
	o.logger.Debugf("[Run %s] -> %s", r.id, state)
	o.emitState(r, state)
	return !r.token.IsCancelled()
}

// advance applies a progress step and notifies observers if the value moved.
// Nothing is reported once the token is cancelled.
func (o *Orchestrator) advance(r run, step func() (float64, bool)) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()
	if r.token.IsCancelled() {
		return
	}
	value, advanced := step()
	if !advanced {
		return
	}
	o.notify(types.RunEvent{RunID: r.id, State: o.State(), Progress: value, Time: time.Now()})
}

func (o *Orchestrator) emitState(r run, state types.RunState) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()
	o.notify(types.RunEvent{RunID: r.id, State: state, Progress: r.progress.Value(), Time: time.Now()})
}

func (o *Orchestrator) notify(event types.RunEvent) {
	if o.observer != nil {
		o.observer.OnRunEvent(event)
	}
}

func (o *Orchestrator) finishCancelled(r run, orphan *types.TranscodeResult) types.Outcome {
	if orphan != nil {
		o.logger.Warnf("[Run %s] Transcoded video %s is left without a post", r.id, orphan.RemotePlaylistPath)
	}
	return o.finish(r, types.RunStateCancelled, nil)
}

func (o *Orchestrator) finishFailed(r run, err error, orphan *types.TranscodeResult) types.Outcome {
	if orphan != nil {
		o.logger.Warnf("[Run %s] Transcoded video %s is left without a post", r.id, orphan.RemotePlaylistPath)
	}
	return o.finish(r, types.RunStateFailed, err)
}

func (o *Orchestrator) finish(r run, state types.RunState, err error) types.Outcome {
	outcome := types.Outcome{
		RunID:    r.id,
		State:    state,
		Progress: r.progress.Value(),
		Err:      err,
	}
	if state == types.RunStateFailed {
		outcome.Message = transfer.UserMessage(err)
	}

	o.mu.Lock()
	o.state = state
	o.running = false
	if state == types.RunStateCompleted {
		outcome.Record = o.record
	}
	o.outcome = &outcome
	o.mu.Unlock()

	switch state {
	case types.RunStateCompleted:
		o.logger.Infof("[Run %s] Upload complete", r.id)
	case types.RunStateFailed:
		o.logger.Errorf("[Run %s] Upload failed: %v", r.id, err)
	case types.RunStateCancelled:
		o.logger.Infof("[Run %s] Upload cancelled", r.id)
	}
	o.emitMu.Lock()
	o.notify(types.RunEvent{RunID: r.id, State: state, Progress: outcome.Progress, Message: outcome.Message, Record: outcome.Record, Time: time.Now()})
	o.emitMu.Unlock()
	return outcome
}
