package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	mockproviders "ccswitch-hq/ccswitch/internal/providers"
	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/cli"
	"ccswitch-hq/ccswitch/pkg/routing"
)

// resetFlags restores every flag to its default so commands can run
// repeatedly in one process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	return execute(t, context.Background(), append([]string{"--config", cfgPath}, args...)...)
}

func mustRun(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := run(t, cfgPath, args...)
	if err != nil {
		t.Fatalf("ccswitch %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func tempConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "ccswitch", "config.yaml")
}

func TestChannelCommands(t *testing.T) {
	cfg := tempConfig(t)

	out := mustRun(t, cfg, "add", "primary", "https://a.example.com/v1/chat/completions", "--key", "sk-abcdefgh12345678")
	if !strings.Contains(out, `Added channel "primary"`) {
		t.Errorf("unexpected add output %q", out)
	}
	mustRun(t, cfg, "add", "backup", "https://b.example.com/v1/chat/completions", "--priority", "1", "--model", "gpt-4o", "--disabled")

	info, err := os.Stat(cfg)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}

	var views []cli.ChannelView
	if err := json.Unmarshal([]byte(mustRun(t, cfg, "list", "-o", "json")), &views); err != nil {
		t.Fatalf("invalid list JSON: %v", err)
	}
	if len(views) != 2 || views[0].Name != "primary" || views[1].Enabled {
		t.Fatalf("unexpected channels %+v", views)
	}
	if views[0].APIKey != "****5678" {
		t.Errorf("expected masked key, got %q", views[0].APIKey)
	}

	mustRun(t, cfg, "update", "backup", "--enable", "--priority", "0", "--timeout", "20")
	mustRun(t, cfg, "update", "primary", "--priority", "5")

	if err := json.Unmarshal([]byte(mustRun(t, cfg, "list", "--output", "json")), &views); err != nil {
		t.Fatalf("invalid list JSON: %v", err)
	}
	if views[0].Name != "backup" || !views[0].Enabled || views[0].TimeoutSeconds != 20 {
		t.Errorf("update not applied: %+v", views[0])
	}

	mustRun(t, cfg, "remove", "backup")
	out = mustRun(t, cfg, "list")
	if strings.Contains(out, "backup") || !strings.Contains(out, "primary") {
		t.Errorf("unexpected list after remove:\n%s", out)
	}

	data, err := os.ReadFile(cfg)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.Contains(string(data), "sk-abcdefgh12345678") {
		t.Error("the saved file should keep the full key")
	}
}

func TestChannelCommands_Errors(t *testing.T) {
	cfg := tempConfig(t)
	mustRun(t, cfg, "add", "primary", "https://a.example.com/v1")

	tests := []struct {
		name  string
		args  []string
		check func(error) bool
	}{
		{"duplicate name", []string{"add", "primary", "https://b.example.com/v1"}, func(err error) bool {
			return errors.Is(err, channels.ErrDuplicateName)
		}},
		{"invalid url", []string{"add", "bad", "not a url"}, func(err error) bool {
			return errors.Is(err, channels.ErrInvalidChannel)
		}},
		{"remove unknown", []string{"remove", "ghost"}, func(err error) bool {
			return errors.Is(err, channels.ErrNotFound)
		}},
		{"update unknown", []string{"update", "ghost", "--disable"}, func(err error) bool {
			return errors.Is(err, channels.ErrNotFound)
		}},
		{"update nothing", []string{"update", "primary"}, func(err error) bool {
			var cfgErr *cli.ConfigError
			return errors.As(err, &cfgErr)
		}},
		{"bad output format", []string{"list", "-o", "yaml"}, func(err error) bool {
			var cfgErr *cli.ConfigError
			return errors.As(err, &cfgErr)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, cfg, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestTestCommand(t *testing.T) {
	server := mockproviders.NewMockServer()
	defer server.Close()
	server.SetResponse("/good", mockproviders.MockSuccess("hi", "gpt-4o"))
	server.SetResponse("/bad", mockproviders.MockAuthError())

	cfg := tempConfig(t)
	mustRun(t, cfg, "add", "good", server.ChannelURL("/good"), "--key", "sk-good-key-123456")
	mustRun(t, cfg, "add", "bad", server.ChannelURL("/bad"), "--priority", "1")

	out := mustRun(t, cfg, "test")
	for _, want := range []string{"good", "available", "unavailable (rejected)", "1/2 channels available"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	_, err := run(t, cfg, "test", "bad")
	if !errors.Is(err, cli.ErrSilent) {
		t.Errorf("expected a silent failure when nothing is available, got %v", err)
	}

	_, err = run(t, cfg, "test", "ghost")
	if !errors.Is(err, channels.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRequestCommand(t *testing.T) {
	server := mockproviders.NewMockServer()
	defer server.Close()
	server.SetResponse("/primary", mockproviders.MockServerError())
	server.SetResponse("/backup", mockproviders.MockSuccess("Bonjour", "gpt-4o"))

	cfg := tempConfig(t)
	textfile := filepath.Join(t.TempDir(), "ccswitch.prom")
	t.Setenv("CCSWITCH_METRICS_TEXTFILE", textfile)

	mustRun(t, cfg, "add", "primary", server.ChannelURL("/primary"))
	mustRun(t, cfg, "add", "backup", server.ChannelURL("/backup"), "--priority", "1")

	out := mustRun(t, cfg, "request", "Translate", "good morning", "--model", "gpt-4o", "--temperature", "0")
	if !strings.Contains(out, "backup") || !strings.HasSuffix(out, "Bonjour\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Failed before success (1)") {
		t.Errorf("expected prior failure in output:\n%s", out)
	}

	reqs := server.RequestsTo("/backup")
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request to backup, got %d", len(reqs))
	}
	body := reqs[0].Body
	if body["model"] != "gpt-4o" || body["temperature"] != float64(0) || body["max_tokens"] != float64(routing.DefaultMaxTokens) {
		t.Errorf("unexpected request body %v", body)
	}

	data, err := os.ReadFile(textfile)
	if err != nil {
		t.Fatalf("metrics textfile not written: %v", err)
	}
	if !strings.Contains(string(data), "ccswitch_routes_total") {
		t.Errorf("textfile missing route metrics:\n%s", data)
	}

	var view cli.RouteView
	if err := json.Unmarshal([]byte(mustRun(t, cfg, "request", "hello", "--json")), &view); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !view.Success || view.Channel != "backup" || len(view.PriorFailures) != 1 {
		t.Errorf("unexpected view %+v", view)
	}
}

func TestRequestCommand_AllFail(t *testing.T) {
	server := mockproviders.NewMockServer()
	defer server.Close()
	server.SetResponse("/primary", mockproviders.MockAuthError())
	server.SetResponse("/backup", mockproviders.MockServerError())

	cfg := tempConfig(t)
	mustRun(t, cfg, "add", "primary", server.ChannelURL("/primary"))
	mustRun(t, cfg, "add", "backup", server.ChannelURL("/backup"), "--priority", "1")

	out, err := run(t, cfg, "request", "hello")
	if !errors.Is(err, cli.ErrSilent) || !errors.Is(err, routing.ErrAllChannelsFailed) {
		t.Fatalf("expected silent all-channels-failed error, got %v", err)
	}
	for _, want := range []string{"Request failed", "primary", "auth", "backup", "server_error"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	_, err = run(t, cfg, "request", "hello", "--model", "no-such-model", "--max-tokens", "0")
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected max-tokens config error, got %v", err)
	}
}

func TestMonitorCommand_StopsOnCancel(t *testing.T) {
	server := mockproviders.NewMockServer()
	defer server.Close()
	server.SetResponse("/primary", mockproviders.MockSuccess("ok", "gpt-4o"))

	cfg := tempConfig(t)
	mustRun(t, cfg, "add", "primary", server.ChannelURL("/primary"))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	out, err := execute(t, ctx, "--config", cfg, "monitor", "--interval", "1h", "--metrics-addr", "", "--no-watch")
	if err != nil {
		t.Fatalf("monitor returned error: %v", err)
	}
	if !strings.Contains(out, "Monitoring 1 channels") {
		t.Errorf("unexpected output %q", out)
	}
	if len(server.RequestsTo("/primary")) == 0 {
		t.Error("expected the channel to be probed")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, context.Background(), "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "ccswitch "+Version) || !strings.Contains(out, "Go Version:") {
		t.Errorf("unexpected output %q", out)
	}
}
