package tool

import (
	"context"
	"fmt"
)

// SearchFunc executes a web search query and returns a textual result list.
type SearchFunc func(ctx context.Context, query string) (string, error)

// WebSearchOptions configures the web_search tool.
type WebSearchOptions struct {
	Search SearchFunc
}

// NewWebSearch returns a tool that runs web searches through a pluggable
// backend. Without a configured backend the tool reports that searching is
// unavailable instead of failing the whole run.
func NewWebSearch(optFns ...func(o *WebSearchOptions)) *FunctionTool {
	opts := WebSearchOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return NewFunctionTool(
		"web_search",
		"Search the web for a query. Input is the search query text.",
		func(ctx context.Context, input string) (string, error) {
			if opts.Search == nil {
				return fmt.Sprintf("web search is not configured; unable to search for %q", input), nil
			}
			return opts.Search(ctx, input)
		},
	)
}
