package config

import (
	"errors"
	"fmt"
	"strings"

	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/telemetry/logging"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "channels[0].url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRouting(cfg)...)
	errs = append(errs, validateChannels(cfg.Channels)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateRouting(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.TimeoutSeconds <= 0 {
		errs = append(errs, FieldError{Field: "timeout_seconds", Message: "must be positive"})
	}
	if cfg.ProbeTimeoutSeconds <= 0 {
		errs = append(errs, FieldError{Field: "probe_timeout_seconds", Message: "must be positive"})
	}

	return errs
}

func validateChannels(list []ChannelConfig) []FieldError {
	var errs []FieldError
	seen := make(map[string]int, len(list))

	for i, ch := range list {
		prefix := fmt.Sprintf("channels[%d]", i)

		if err := ch.Channel().Validate(); err != nil {
			var invalid *channels.InvalidChannelError
			if errors.As(err, &invalid) {
				errs = append(errs, FieldError{Field: prefix + "." + invalid.Field, Message: invalid.Message})
			} else {
				errs = append(errs, FieldError{Field: prefix, Message: err.Error()})
			}
		}

		if ch.Name == "" {
			continue
		}
		if first, dup := seen[ch.Name]; dup {
			errs = append(errs, FieldError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("duplicate channel name %q (first defined at channels[%d])", ch.Name, first),
			})
			continue
		}
		seen[ch.Name] = i
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if !logging.ValidLevel(cfg.Logging.Level) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}
	if !logging.ValidFormat(cfg.Logging.Format) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json, text, or console)", cfg.Logging.Format),
		})
	}

	for i, b := range cfg.Metrics.LatencyBuckets {
		if b <= 0 || (i > 0 && b <= cfg.Metrics.LatencyBuckets[i-1]) {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.latency_buckets",
				Message: "must be positive and strictly increasing",
			})
			break
		}
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: fmt.Sprintf("must be between 0.0 and 1.0, got %v", cfg.Tracing.SampleRatio),
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "is required when tracing is enabled",
		})
	}

	return errs
}
