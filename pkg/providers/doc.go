// Package providers talks to chat-completion channels over HTTP.
//
// # Overview
//
// Two operations are exposed on top of a shared, pooled HTTP client:
//
//  1. Executor - performs the real chat-completion call and classifies the
//     outcome as a ChatResponse or a *ChannelError with an ErrorKind.
//  2. Prober - performs a one-token completion to check that an endpoint is
//     reachable and accepts the channel's credential.
//
// Each call performs exactly one outbound request bounded by its own
// timeout. There are no retries at this layer; failing over to another
// channel is the routing package's job.
//
// # Basic Usage
//
//	client := providers.NewClient(providers.DefaultClientConfig(), logger)
//	defer client.Close()
//
//	exec := providers.NewExecutor(client, logger)
//	resp, err := exec.Execute(ctx, ch, &providers.ChatRequest{
//	    Model:    "gpt-4",
//	    Messages: []providers.Message{{Role: "user", Content: "Hello!"}},
//	}, 30*time.Second)
//	if err != nil {
//	    kind, _ := providers.KindOf(err)
//	    fmt.Printf("channel failed: %s\n", kind)
//	}
//
// # Error Kinds
//
// Failed calls return a *ChannelError whose Kind is one of:
//
//   - KindTimeout: the per-call timeout expired
//   - KindNetwork: connection or DNS failure
//   - KindAuth: HTTP 401 or 403
//   - KindRateLimited: HTTP 429
//   - KindServerError: HTTP 5xx
//   - KindClientError: any other 4xx
//   - KindMalformed: the response body could not be interpreted
//
// When the caller's context is cancelled the context error is returned
// as-is, so callers can tell cancellation apart from a channel failure.
//
// # Response Formats
//
// Content is extracted from OpenAI-style (choices[0].message.content or
// choices[0].delta.content), Anthropic-style (content as a string or
// content[0].text) and bare (text or response) bodies.
//
// # Thread Safety
//
// Client, Executor and Prober are safe for concurrent use.
package providers
