// Vesta is a cost-reduction gateway for LLM inference APIs.
//
// It sits in front of an inference backend and reduces spend with:
//   - Two-tier response caching (exact fingerprint + semantic similarity)
//   - Cost-, latency-, and capability-aware model routing
//   - Per-request cost ceilings and strategy overrides via headers
//   - Usage accounting with savings attribution
//
// Usage:
//
//	# Start the gateway with default configuration
//	vesta run
//
//	# Start with a custom configuration file
//	vesta run --config /etc/vesta/vesta.yaml
//
//	# Check a configuration file without starting
//	vesta validate --config vesta.yaml
//
//	# List the models the router can choose from
//	vesta models --output json
//
//	# Show version information
//	vesta version
package main

func main() {
	Execute()
}
