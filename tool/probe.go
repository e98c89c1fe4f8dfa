package tool

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ProbeCount is the number of echo requests sent by ProbeBackend.
var ProbeCount = 3

// ProbeResult summarises a backend reachability check.
type ProbeResult struct {
	Host       string
	PacketLoss float64
	AvgRtt     time.Duration
}

// ProbeBackend pings the host of baseURL. Unprivileged (UDP) ping is used so no root is needed;
// some networks drop ICMP entirely, so callers treat a failure as a warning.
func ProbeBackend(ctx context.Context, baseURL string, timeout time.Duration) (*ProbeResult, error) {
	host, err := BackendHost(baseURL)
	if err != nil {
		return nil, err
	}
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backend host %s: %v", host, err)
	}
	pinger.SetPrivileged(false)
	pinger.Count = ProbeCount
	pinger.Timeout = timeout
	if err := pinger.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping backend host %s: %v", host, err)
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return nil, fmt.Errorf("backend host %s did not answer %d pings", host, stats.PacketsSent)
	}
	DefaultLogger.Debugf("[Probe] %s: %d/%d replies, avg rtt %v", host, stats.PacketsRecv, stats.PacketsSent, stats.AvgRtt)
	return &ProbeResult{
		Host:       host,
		PacketLoss: stats.PacketLoss,
		AvgRtt:     stats.AvgRtt,
	}, nil
}
