package notify

import (
	"encoding/binary"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/reelpost/types"
)

type collector struct {
	mu   sync.Mutex
	sent []*types.Notification
}

func (c *collector) send(n *types.Notification, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

func (c *collector) Broadcast(n *types.Notification) {
	c.send(n, "")
}

func (c *collector) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.sent))
	for _, n := range c.sent {
		out = append(out, n.Type)
	}
	return out
}

func event(state types.RunState, progress float64) types.RunEvent {
	return types.RunEvent{RunID: "r1", State: state, Progress: progress}
}

func TestNotifierMapsRunEvents(t *testing.T) {
	c := &collector{}
	n := NewNotifier("", 100, WithSender(c.send))

	record := &types.UploadRecord{VideoPath: "p1"}
	n.OnRunEvent(event(types.RunStateSubmitting, 0))
	n.OnRunEvent(event(types.RunStateSubmitting, 0.10))
	n.OnRunEvent(event(types.RunStateSubmitting, 0.90))
	n.OnRunEvent(event(types.RunStatePublishingThumbnail, 0.90))
	n.OnRunEvent(event(types.RunStateCommitting, 0.95))
	n.OnRunEvent(types.RunEvent{RunID: "r1", State: types.RunStateCompleted, Progress: 1, Record: record})
	n.Close()

	assert.Equal(t, []string{
		types.NotifyTypeUploadStart,
		types.NotifyTypeUploadProgress,
		types.NotifyTypeUploadProgress,
		types.NotifyTypeUploadState,
		types.NotifyTypeUploadState,
		types.NotifyTypeUploadEnd,
	}, c.kinds())
	assert.Equal(t, TitleProcessing, c.sent[0].Title)
	assert.Equal(t, TitleUploading, c.sent[3].Title)
	assert.Equal(t, record, c.sent[5].Data["record"])
}

func TestNotifierThrottlesTransferProgressOnly(t *testing.T) {
	c := &collector{}
	n := NewNotifier("", 1, WithSender(c.send))

	n.OnRunEvent(event(types.RunStateSubmitting, 0.10))
	for _, p := range []float64{0.2, 0.3, 0.4, 0.5} {
		n.OnRunEvent(event(types.RunStateSubmitting, p))
	}
	n.OnRunEvent(event(types.RunStateSubmitting, 0.80))
	n.OnRunEvent(event(types.RunStateSubmitting, 0.90))
	n.Close()

	assert.Equal(t, []string{
		types.NotifyTypeUploadStart,
		types.NotifyTypeUploadProgress, // 0.2, the only token in the bucket
		types.NotifyTypeUploadProgress, // 0.80
		types.NotifyTypeUploadProgress, // 0.90
	}, c.kinds())
}

func TestNotifierTerminalNotifications(t *testing.T) {
	tests := []struct {
		name    string
		event   types.RunEvent
		want    string
		title   string
		message string
	}{
		{"failed", types.RunEvent{RunID: "r1", State: types.RunStateFailed, Message: "File too large"}, types.NotifyTypeUploadFailed, TitleFailed, "File too large"},
		{"cancelled", types.RunEvent{RunID: "r1", State: types.RunStateCancelled}, types.NotifyTypeUploadCancelled, TitleCancelled, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildNotification(tt.event, true)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.title, got.Title)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, "r1", got.Data["runId"])
		})
	}
	assert.Nil(t, BuildNotification(event(types.RunStateIdle, 0), true))
}

func TestNotifierBroadcastsToHub(t *testing.T) {
	hub := &collector{}
	n := NewNotifier("", 10, WithHub(hub), WithSender(func(*types.Notification, string) error { return io.ErrClosedPipe }))
	n.OnRunEvent(event(types.RunStateSubmitting, 0))
	n.Close()
	n.Close()
	n.OnRunEvent(event(types.RunStateCancelled, 0))

	assert.Equal(t, []string{types.NotifyTypeUploadStart}, hub.kinds())
}

func TestSendNotificationFraming(t *testing.T) {
	dir, err := os.MkdirTemp("", "rp")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	socketPath := filepath.Join(dir, "n.sock")

	ln, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan types.Notification, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var size uint32
		if err := binary.Read(conn, binary.LittleEndian, &size); err != nil {
			return
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}
		var n types.Notification
		_ = sonic.Unmarshal(payload, &n)
		_, _ = conn.Write([]byte(`{"ok":true}`))
		received <- n
	}()

	err = SendNotification(&types.Notification{Type: types.NotifyTypeUploadStart, Title: TitleProcessing}, socketPath)
	require.NoError(t, err)
	got := <-received
	assert.Equal(t, types.NotifyTypeUploadStart, got.Type)
	assert.Equal(t, TitleProcessing, got.Title)
}

func TestSendNotificationMissingSocket(t *testing.T) {
	err := SendNotification(&types.Notification{Type: types.NotifyTypeInfo}, filepath.Join(t.TempDir(), "missing.sock"))
	assert.Error(t, err)

	SetUseNotify(false)
	defer SetUseNotify(true)
	assert.NoError(t, SendNotification(&types.Notification{Type: types.NotifyTypeInfo}, "/nonexistent.sock"))
}

func TestSetUseNotifyWhileDelivering(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "missing.sock")
	n := NewNotifier(socketPath, 100)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			SetUseNotify(i%2 == 0)
		}
	}()
	for i := 0; i < 50; i++ {
		n.OnRunEvent(event(types.RunStateSubmitting, 0.90))
	}
	n.OnRunEvent(event(types.RunStateCancelled, 0.90))
	wg.Wait()
	n.Close()
	SetUseNotify(true)
	assert.True(t, NotifyEnabled())
}

func TestTruncateMessageKeepsRunes(t *testing.T) {
	msg := strings.Repeat("a", MaxNotifyMessageLen-1) + "é" + "tail"
	got := truncateMessage(msg, MaxNotifyMessageLen)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", MaxNotifyMessageLen-1)+"...", got)

	assert.Equal(t, "short", truncateMessage("short", MaxNotifyMessageLen))
}

func TestNotifierDoesNotStallOnBlockedDelivery(t *testing.T) {
	prev := EnqueueTimeout
	EnqueueTimeout = 20 * time.Millisecond
	defer func() { EnqueueTimeout = prev }()

	release := make(chan struct{})
	c := &collector{}
	n := NewNotifier("", 100, WithSender(func(note *types.Notification, path string) error {
		<-release
		return c.send(note, path)
	}))

	states := []types.RunState{types.RunStateSubmitting, types.RunStatePublishingThumbnail}
	start := time.Now()
	for i := 0; i < 2*notifyQueueSize; i++ {
		n.OnRunEvent(event(states[i%2], 0.90))
	}
	n.OnRunEvent(event(types.RunStateFailed, 0.90))
	elapsed := time.Since(start)

	close(release)
	n.Close()

	assert.Less(t, elapsed, 5*time.Second)
	assert.Less(t, len(c.kinds()), 2*notifyQueueSize+1, "some notifications were dropped instead of blocking")
}
