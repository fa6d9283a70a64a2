package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/providers"
	"ccswitch-hq/ccswitch/pkg/routing"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is human-readable tables (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON output.
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", NewConfigError("output format", fmt.Sprintf("%q (must be text or json)", s))
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// ChannelView is the displayed form of a channel. The key is masked.
type ChannelView struct {
	Name           string `json:"name"`
	URL            string `json:"url"`
	Model          string `json:"model,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	Enabled        bool   `json:"enabled"`
	Priority       int    `json:"priority"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// ProbeView is the displayed form of a probe result.
type ProbeView struct {
	Channel    string `json:"channel"`
	Healthy    bool   `json:"healthy"`
	Reason     string `json:"reason,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
	Detail     string `json:"detail,omitempty"`
}

// AttemptView is the displayed form of one routing attempt.
type AttemptView struct {
	Channel    string `json:"channel"`
	Outcome    string `json:"outcome"`
	Kind       string `json:"kind,omitempty"`
	Reason     string `json:"reason,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
	Detail     string `json:"detail,omitempty"`
}

// RouteView is the displayed outcome of a request, successful or not.
type RouteView struct {
	Success       bool            `json:"success"`
	RequestID     string          `json:"request_id,omitempty"`
	Channel       string          `json:"channel,omitempty"`
	Model         string          `json:"model,omitempty"`
	Content       string          `json:"content,omitempty"`
	Usage         json.RawMessage `json:"usage,omitempty"`
	DurationMS    int64           `json:"duration_ms"`
	PriorFailures []AttemptView   `json:"prior_failures,omitempty"`
	Error         string          `json:"error,omitempty"`
	ErrorKind     string          `json:"error_kind,omitempty"`
	Attempts      []AttemptView   `json:"attempts,omitempty"`
}

// NewChannelViews converts channels for display.
func NewChannelViews(list []channels.Channel) []ChannelView {
	views := make([]ChannelView, len(list))
	for i, ch := range list {
		views[i] = ChannelView{
			Name:           ch.Name,
			URL:            ch.URL,
			Model:          ch.Model,
			APIKey:         ch.MaskedKey(),
			Enabled:        ch.Enabled,
			Priority:       ch.Priority,
			TimeoutSeconds: ch.TimeoutSeconds,
		}
	}
	return views
}

// NewProbeViews converts probe results for display.
func NewProbeViews(results []providers.ProbeResult) []ProbeView {
	views := make([]ProbeView, len(results))
	for i, r := range results {
		views[i] = ProbeView{
			Channel:    r.Channel,
			Healthy:    r.Healthy,
			Reason:     string(r.Reason),
			StatusCode: r.StatusCode,
			LatencyMS:  r.Latency.Milliseconds(),
			Detail:     r.Detail,
		}
	}
	return views
}

// NewAttemptViews converts routing attempts for display.
func NewAttemptViews(attempts []routing.AttemptResult) []AttemptView {
	views := make([]AttemptView, len(attempts))
	for i, a := range attempts {
		views[i] = AttemptView{
			Channel:    a.Channel,
			Outcome:    string(a.Outcome),
			Kind:       string(a.Kind),
			Reason:     string(a.Reason),
			StatusCode: a.StatusCode,
			LatencyMS:  a.Latency.Milliseconds(),
			Detail:     a.Detail,
		}
	}
	return views
}

// NewRouteView describes a successful route.
func NewRouteView(result *routing.RouteResult) RouteView {
	view := RouteView{
		Success:       true,
		RequestID:     result.RequestID,
		Channel:       result.Channel,
		Model:         result.Model,
		DurationMS:    result.Duration.Milliseconds(),
		PriorFailures: NewAttemptViews(result.PriorFailures),
	}
	if result.Response != nil {
		view.Content = result.Response.Content
		view.Usage = result.Response.Usage
	}
	return view
}

// NewRouteErrorView describes a failed route.
func NewRouteErrorView(err *routing.RouteError) RouteView {
	return RouteView{
		RequestID: err.RequestID,
		Model:     err.Model,
		Error:     err.Error(),
		ErrorKind: string(err.Kind),
		Attempts:  NewAttemptViews(err.Attempts),
	}
}

// WriteChannels prints the channel list.
func WriteChannels(w io.Writer, format OutputFormat, list []channels.Channel) error {
	views := NewChannelViews(list)
	if format == FormatJSON {
		return (&JSONFormatter{Indent: true}).FormatTo(w, views)
	}

	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No channels configured.")
		return err
	}

	table := newTable(w, []string{"Name", "Status", "Priority", "Model", "URL", "Key", "Timeout"})
	for _, v := range views {
		status := "enabled"
		if !v.Enabled {
			status = "disabled"
		}
		model := v.Model
		if model == "" {
			model = "*"
		}
		timeout := "-"
		if v.TimeoutSeconds > 0 {
			timeout = strconv.Itoa(v.TimeoutSeconds) + "s"
		}
		table.Append([]string{v.Name, status, strconv.Itoa(v.Priority), model, v.URL, v.APIKey, timeout})
	}
	table.Render()
	return nil
}

// WriteProbes prints channel test results.
func WriteProbes(w io.Writer, format OutputFormat, results []providers.ProbeResult) error {
	views := NewProbeViews(results)
	if format == FormatJSON {
		return (&JSONFormatter{Indent: true}).FormatTo(w, views)
	}

	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No enabled channels to test.")
		return err
	}

	table := newTable(w, []string{"Channel", "Status", "Latency", "HTTP", "Detail"})
	healthy := 0
	for _, v := range views {
		status := "available"
		if v.Healthy {
			healthy++
		} else {
			status = "unavailable (" + v.Reason + ")"
		}
		table.Append([]string{v.Channel, status, formatMS(v.LatencyMS), formatStatus(v.StatusCode), v.Detail})
	}
	table.Render()

	_, err := fmt.Fprintf(w, "\n%d/%d channels available\n", healthy, len(views))
	return err
}

// WriteRoute prints a successful route. The content comes last in text mode.
func WriteRoute(w io.Writer, format OutputFormat, result *routing.RouteResult) error {
	view := NewRouteView(result)
	if format == FormatJSON {
		return (&JSONFormatter{Indent: true}).FormatTo(w, view)
	}

	fmt.Fprintf(w, "Channel:  %s\n", view.Channel)
	fmt.Fprintf(w, "Model:    %s\n", view.Model)
	fmt.Fprintf(w, "Latency:  %s\n", formatMS(view.DurationMS))
	if len(view.Usage) > 0 {
		fmt.Fprintf(w, "Usage:    %s\n", compactJSON(view.Usage))
	}
	if len(view.PriorFailures) > 0 {
		fmt.Fprintf(w, "\nFailed before success (%d):\n", len(view.PriorFailures))
		writeAttempts(w, view.PriorFailures)
	}

	_, err := fmt.Fprintf(w, "\n%s\n", view.Content)
	return err
}

// WriteRouteError prints every attempt of a failed route.
func WriteRouteError(w io.Writer, format OutputFormat, routeErr *routing.RouteError) error {
	view := NewRouteErrorView(routeErr)
	if format == FormatJSON {
		return (&JSONFormatter{Indent: true}).FormatTo(w, view)
	}

	if _, err := fmt.Fprintf(w, "Request failed: %s\n", view.Error); err != nil {
		return err
	}
	if len(view.Attempts) > 0 {
		fmt.Fprintln(w)
		writeAttempts(w, view.Attempts)
	}
	return nil
}

func writeAttempts(w io.Writer, attempts []AttemptView) {
	table := newTable(w, []string{"#", "Channel", "Outcome", "Kind", "Latency", "HTTP", "Detail"})
	for i, a := range attempts {
		kind := a.Kind
		if kind == "" {
			kind = a.Reason
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			a.Channel,
			a.Outcome,
			kind,
			formatMS(a.LatencyMS),
			formatStatus(a.StatusCode),
			a.Detail,
		})
	}
	table.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetColumnSeparator("  ")
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func formatMS(ms int64) string {
	return strconv.FormatInt(ms, 10) + "ms"
}

func formatStatus(code int) string {
	if code == 0 {
		return "-"
	}
	return strconv.Itoa(code)
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
