package channels

import (
	"net/url"
	"strings"
	"time"
)

// Channel is one configured backend endpoint capable of serving chat completions.
type Channel struct {
	// Name uniquely identifies the channel within a Registry.
	Name string `yaml:"name" json:"name"`

	// URL is the full endpoint URL requests are POSTed to.
	URL string `yaml:"url" json:"url"`

	// APIKey is passed through as a bearer credential. Opaque to the engine.
	APIKey string `yaml:"api_key,omitempty" json:"-"`

	// Model is the model this channel serves. Empty means any model.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// Enabled channels are eligible for routing; disabled ones never are.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Priority orders channels, lower first.
	Priority int `yaml:"priority" json:"priority"`

	// TimeoutSeconds overrides the global request timeout when positive.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

// Serves reports whether the channel accepts requests for model.
// The comparison is case-sensitive.
func (c Channel) Serves(model string) bool {
	return c.Model == "" || c.Model == model
}

// Timeout returns the channel's request timeout, or fallback when the
// channel does not override it.
func (c Channel) Timeout(fallback time.Duration) time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return fallback
}

// MaskedKey returns the API key with everything but the last four
// characters hidden, for display.
func (c Channel) MaskedKey() string {
	if c.APIKey == "" {
		return ""
	}
	if len(c.APIKey) <= 8 {
		return "****"
	}
	return strings.Repeat("*", 4) + c.APIKey[len(c.APIKey)-4:]
}

// Validate checks the record is usable by the engine.
func (c Channel) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &InvalidChannelError{Name: c.Name, Field: "name", Message: "must not be empty"}
	}
	if c.URL == "" {
		return &InvalidChannelError{Name: c.Name, Field: "url", Message: "must not be empty"}
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &InvalidChannelError{Name: c.Name, Field: "url", Message: "must be an absolute http(s) URL"}
	}
	if c.TimeoutSeconds < 0 {
		return &InvalidChannelError{Name: c.Name, Field: "timeout_seconds", Message: "must not be negative"}
	}
	return nil
}
