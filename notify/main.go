package notify

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/types"
)

// NotifyWriteChunkSize is the chunk size when writing payload to Unix socket (avoid large single write).
const NotifyWriteChunkSize = 32 * 1024 // 32KB

// MaxNotifyMessageLen keeps failure messages from bloating the payload
const MaxNotifyMessageLen = 512

// Configuration for Unix Domain Socket notification
var (
	// DefaultUnixSocketPath is the default Unix socket path for IPC
	DefaultUnixSocketPath = "/tmp/reelpost-notify.sock"
	// UnixSocketTimeout is the timeout for Unix socket operations
	UnixSocketTimeout = 3 * time.Second
)

// useNotify is read by delivery goroutines while main or tests toggle it.
var useNotify atomic.Bool

func init() {
	useNotify.Store(true)
}

// SetUseNotify sets whether to use notify
func SetUseNotify(use bool) {
	useNotify.Store(use)
}

// NotifyEnabled reports whether notifications are sent over the unix socket.
func NotifyEnabled() bool {
	return useNotify.Load()
}

// SendNotification sends notification via Unix Domain Socket.
// Frame: 4 byte little-endian length, then the JSON payload.
func SendNotification(notification *types.Notification, socketPath string) error {
	if !useNotify.Load() {
		return nil
	}
	if socketPath == "" {
		socketPath = DefaultUnixSocketPath
	}

	if notification != nil {
		notification.Message = truncateMessage(notification.Message, MaxNotifyMessageLen)
	}

	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return fmt.Errorf("unix socket not found: %s", socketPath)
	}

	var payload []byte
	var err error
	if notification != nil {
		payload, err = sonic.Marshal(notification)
		if err != nil {
			return fmt.Errorf("failed to serialize notification data: %v", err)
		}
	} else {
		payload = []byte("{}")
	}

	if len(payload) > NotifyWriteChunkSize {
		return fmt.Errorf("notification payload too large: %d bytes (max %d)", len(payload), NotifyWriteChunkSize)
	}

	conn, err := net.DialTimeout("unix", socketPath, UnixSocketTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to Unix socket %s: %v", socketPath, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close Unix socket connection: %v", err)
		}
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(UnixSocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set write deadline: %v", err)
	}

	lengthBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lengthBuf, uint32(len(payload)))
	if _, err = conn.Write(lengthBuf); err != nil {
		return fmt.Errorf("failed to write length to Unix socket: %v", err)
	}
	tool.DefaultLogger.Debugf("Sending notification to Unix socket (len=%d): %s", len(payload), string(payload))
	for off := 0; off < len(payload); {
		nw, err := conn.Write(payload[off:])
		if err != nil {
			return fmt.Errorf("failed to write payload to Unix socket: %v", err)
		}
		off += nw
	}

	if err := conn.SetReadDeadline(time.Now().Add(UnixSocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set read deadline: %v", err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read response from Unix socket: %v", err)
	}

	if n > 0 {
		var response map[string]any
		if err := sonic.Unmarshal(buf[:n], &response); err != nil {
			tool.DefaultLogger.Debugf("Unix socket response (raw): %s", string(buf[:n]))
		} else if errMsg, ok := response["error"].(string); ok && errMsg != "" {
			return fmt.Errorf("server returned error: %s", errMsg)
		}
	}

	if notification != nil {
		tool.DefaultLogger.Debugf("[UnixSocket] Notification sent: %s - %s", notification.Type, notification.Title)
	}
	return nil
}

// truncateMessage cuts s to at most maxBytes bytes on a rune boundary and marks the cut.
func truncateMessage(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// SendSimpleNotification sends a simple text notification
func SendSimpleNotification(title, message string) error {
	notification := &types.Notification{
		Type:    types.NotifyTypeInfo,
		Title:   title,
		Message: message,
	}
	return SendNotification(notification, DefaultUnixSocketPath)
}
