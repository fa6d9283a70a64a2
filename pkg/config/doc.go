// Package config provides configuration management for ccswitch.
//
// The configuration is a single YAML file, by default
// $XDG_CONFIG_HOME/ccswitch/config.yaml, holding the channel list, the
// global routing settings, and telemetry options. A missing file is
// created with defaults on first use.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig(path)
//
//  2. Through a Store, which applies environment variable overrides and
//     persists channel edits:
//     store, err := config.Open(path, logger)
//     cfg := store.Config()
//
// # Environment Variable Overrides
//
//   - CCSWITCH_DEFAULT_MODEL overrides default_model
//   - CCSWITCH_TIMEOUT_SECONDS overrides timeout_seconds
//   - CCSWITCH_RETRY_ATTEMPTS overrides retry_attempts
//   - CCSWITCH_PROBE_BEFORE_REQUEST overrides probe_before_request
//   - CCSWITCH_LOG_LEVEL and CCSWITCH_LOG_FORMAT override telemetry.logging
//   - CCSWITCH_METRICS_TEXTFILE overrides telemetry.metrics.textfile
//   - CCSWITCH_TRACING_ENABLED and CCSWITCH_TRACING_ENDPOINT override telemetry.tracing
//
// Overrides apply to the effective configuration only and are never
// written back to the file.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
//	default_model: gpt-4o-mini
//	retry_attempts: 3
//	channels:
//	  - name: primary
//	    url: https://api.example.com/v1/chat/completions
//	    api_key: sk-...
//	    priority: 0
//	  - name: backup
//	    url: https://backup.example.com/v1/chat/completions
//	    api_key: sk-...
//	    priority: 1
//	telemetry:
//	  logging:
//	    level: info
//
// # Thread Safety
//
// Store guards the configuration with a read-write lock. Snapshot hands
// out an independent copy of the channel registry, so a routing run never
// observes edits or reloads that happen while it is in flight.
package config
