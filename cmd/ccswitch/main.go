// ccswitch routes chat-completion requests across a prioritized set of
// OpenAI-compatible channels, failing over to the next channel when one
// is down, rejects the credential, or returns an unusable answer.
//
// Usage:
//
//	# Register channels
//	ccswitch add primary https://api.example.com/v1/chat/completions --key sk-...
//	ccswitch add backup https://backup.example.com/v1/chat/completions --priority 1
//
//	# Show and probe them
//	ccswitch list
//	ccswitch test
//
//	# Send a prompt through the first working channel
//	ccswitch request "Summarize the release notes" --model gpt-4o-mini
//
//	# Probe periodically and serve Prometheus metrics
//	ccswitch monitor --interval 30s --metrics-addr 127.0.0.1:9464
//
// The configuration lives in $XDG_CONFIG_HOME/ccswitch/config.yaml unless
// --config says otherwise.
package main

func main() {
	Execute()
}
