package tool

import (
	"github.com/hupe1980/agentpilot/core"
)

// DefaultTools returns the built-in tool set referenced by the default agent
// descriptors and tool groups.
func DefaultTools() []core.Capability {
	return []core.Capability{
		NewCalculator(),
		NewHTTPFetch(),
		NewWebSearch(),
	}
}
