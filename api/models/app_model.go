package models

import (
	"sync"

	"github.com/moyoez/reelpost/api/notifyhub"
	"github.com/moyoez/reelpost/tool"
	"github.com/moyoez/reelpost/transfer"
	"github.com/moyoez/reelpost/types"
)

var (
	appMu     sync.RWMutex
	appConfig types.AppConfig
	client    *transfer.Client
	notifyHub *notifyhub.Hub
)

// SetAppConfig sets the configuration used for runs started through the API and builds their HTTP client.
func SetAppConfig(cfg types.AppConfig) {
	appMu.Lock()
	defer appMu.Unlock()
	appConfig = cfg
	client = transfer.NewClient(tool.ClientConfigFrom(cfg))
}

// SetClient replaces the backend client, e.g. with one bound to a test server.
func SetClient(c *transfer.Client) {
	appMu.Lock()
	defer appMu.Unlock()
	client = c
}

func GetAppConfig() types.AppConfig {
	appMu.RLock()
	defer appMu.RUnlock()
	return appConfig
}

func GetClient() *transfer.Client {
	appMu.RLock()
	defer appMu.RUnlock()
	return client
}

// SetNotifyHub sets the hub for WebSocket notification broadcast.
func SetNotifyHub(h *notifyhub.Hub) {
	appMu.Lock()
	defer appMu.Unlock()
	notifyHub = h
}

// GetNotifyHub returns the notify WebSocket hub, or nil if not set.
func GetNotifyHub() *notifyhub.Hub {
	appMu.RLock()
	defer appMu.RUnlock()
	return notifyHub
}
