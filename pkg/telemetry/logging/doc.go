// Package logging provides structured logging with credential redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - Automatic redaction of API keys, bearer tokens and passwords
//   - Context-aware logging with request IDs, channel and model names
//   - Trace correlation from the active OpenTelemetry span
//
// Redaction and context lifting happen in a slog.Handler, so any
// *slog.Logger obtained from Logger.Slog carries them. Engine components
// take a plain *slog.Logger and never see the wrapper.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "text",
//	    Redact: true,
//	})
//
//	logger.Info("channel added",
//	    "channel", "primary",
//	    "api_key", "sk-abc123", // redacted
//	)
//
//	ctx = logging.WithRequestID(ctx, id)
//	logger.Slog().InfoContext(ctx, "routing request") // includes request_id
package logging
