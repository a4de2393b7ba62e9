package endpoints

import (
	"github.com/daixun-ai/papercutter-vl/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Parsing
		&ParseDocsEndpoint{},

		// Observability
		&ListLLMCallsEndpoint{},
		&LLMCallUsageEndpoint{},
		&MetricsSummaryEndpoint{},
	}
}
