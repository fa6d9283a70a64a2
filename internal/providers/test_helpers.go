package providers

import (
	"net"
	"testing"

	"ccswitch-hq/ccswitch/pkg/channels"
)

// TestChannel returns an enabled channel pointing at url.
func TestChannel(name, url string) channels.Channel {
	return channels.Channel{
		Name:    name,
		URL:     url,
		APIKey:  "sk-test-" + name,
		Enabled: true,
	}
}

// ClosedURL returns an http URL on a local port with no listener, for
// provoking connection failures.
func ClosedURL(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return "http://" + addr + "/v1/chat/completions"
}
