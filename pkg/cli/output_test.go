package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/providers"
	"ccswitch-hq/ccswitch/pkg/routing"
)

func testChannels() []channels.Channel {
	return []channels.Channel{
		{Name: "primary", URL: "https://a.example.com/v1/chat/completions", APIKey: "sk-abcdefgh12345678", Enabled: true, Priority: 0, TimeoutSeconds: 5},
		{Name: "backup", URL: "https://b.example.com/v1/chat/completions", Model: "gpt-4o", Enabled: false, Priority: 1},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWriteChannels_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteChannels(&buf, FormatText, testChannels()); err != nil {
		t.Fatalf("WriteChannels() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"primary", "backup", "disabled", "enabled", "****5678", "gpt-4o", "*", "5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "sk-abcdefgh12345678") {
		t.Error("API key must be masked")
	}
}

func TestWriteChannels_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteChannels(&buf, FormatJSON, testChannels()); err != nil {
		t.Fatalf("WriteChannels() error = %v", err)
	}

	var views []ChannelView
	if err := json.Unmarshal(buf.Bytes(), &views); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(views))
	}
	if views[0].APIKey != "****5678" {
		t.Errorf("expected masked key, got %q", views[0].APIKey)
	}
	if views[1].Enabled {
		t.Error("expected backup disabled")
	}
}

func TestWriteChannels_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteChannels(&buf, FormatText, nil); err != nil {
		t.Fatalf("WriteChannels() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No channels configured") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWriteProbes(t *testing.T) {
	results := []providers.ProbeResult{
		{Channel: "primary", Healthy: true, StatusCode: 200, Latency: 150 * time.Millisecond},
		{Channel: "backup", Reason: providers.ReasonRejected, StatusCode: 401, Latency: 80 * time.Millisecond, Detail: "HTTP 401"},
	}

	var buf bytes.Buffer
	if err := WriteProbes(&buf, FormatText, results); err != nil {
		t.Fatalf("WriteProbes() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"available", "unavailable (rejected)", "150ms", "401", "1/2 channels available"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteProbes(&buf, FormatJSON, results); err != nil {
		t.Fatalf("WriteProbes() error = %v", err)
	}
	var views []ProbeView
	if err := json.Unmarshal(buf.Bytes(), &views); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if views[0].LatencyMS != 150 || views[1].Reason != "rejected" {
		t.Errorf("unexpected views %+v", views)
	}
}

func TestWriteRoute(t *testing.T) {
	result := &routing.RouteResult{
		RequestID: "req-1",
		Channel:   "backup",
		Model:     "gpt-4o",
		Response: &providers.ChatResponse{
			Channel: "backup",
			Model:   "gpt-4o",
			Content: "Hello there",
			Usage:   json.RawMessage(`{ "total_tokens": 12 }`),
		},
		PriorFailures: []routing.AttemptResult{
			{Channel: "primary", Outcome: routing.OutcomeFailed, Kind: providers.KindAuth, StatusCode: 401, Detail: "HTTP 401"},
		},
		Duration: 420 * time.Millisecond,
	}

	var buf bytes.Buffer
	if err := WriteRoute(&buf, FormatText, result); err != nil {
		t.Fatalf("WriteRoute() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"backup", "gpt-4o", `{"total_tokens":12}`, "Failed before success (1)", "auth", "420ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "Hello there\n") {
		t.Errorf("content should be printed last:\n%s", out)
	}

	buf.Reset()
	if err := WriteRoute(&buf, FormatJSON, result); err != nil {
		t.Fatalf("WriteRoute() error = %v", err)
	}
	var view RouteView
	if err := json.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !view.Success || view.Content != "Hello there" || len(view.PriorFailures) != 1 {
		t.Errorf("unexpected view %+v", view)
	}
}

func TestWriteRouteError(t *testing.T) {
	routeErr := &routing.RouteError{
		Kind:  routing.FailureAllChannelsFailed,
		Model: "gpt-4o",
		Attempts: []routing.AttemptResult{
			{Channel: "primary", Outcome: routing.OutcomeUnhealthy, Reason: providers.ReasonNetwork, Detail: "connection refused"},
			{Channel: "backup", Outcome: routing.OutcomeFailed, Kind: providers.KindServerError, StatusCode: 502},
		},
	}

	var buf bytes.Buffer
	if err := WriteRouteError(&buf, FormatText, routeErr); err != nil {
		t.Fatalf("WriteRouteError() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Request failed", "primary", "network", "backup", "server_error", "502"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteRouteError(&buf, FormatJSON, routeErr); err != nil {
		t.Fatalf("WriteRouteError() error = %v", err)
	}
	var view RouteView
	if err := json.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if view.Success || view.ErrorKind != "all_channels_failed" || len(view.Attempts) != 2 {
		t.Errorf("unexpected view %+v", view)
	}
}
