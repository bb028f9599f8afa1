package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentpilot/core"
)

// Interface compliance (compile-time assertion)
var _ core.Capability = (*FunctionTool)(nil)

func TestFunctionTool(t *testing.T) {
	tl := NewFunctionTool("echo", "echoes the input", func(_ context.Context, input string) (string, error) {
		return "echo: " + input, nil
	})

	assert.Equal(t, "echo", tl.ID())
	assert.Equal(t, "echoes the input", tl.Description())
	assert.Nil(t, tl.RequiredCapabilities())

	out, err := tl.Invoke(context.Background(), "hi", "ignored context")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)
}

func TestCalculator(t *testing.T) {
	calc := NewCalculator()

	cases := map[string]string{
		"1 + 2":           "3",
		"2 * (3 + 4.5)":   "15",
		"10 / 4":          "2.5",
		"-3 + 5":          "2",
		"2 + 3 * 4":       "14",
		"(1 + 2) * (3-1)": "6",
		"--2":             "2",
	}
	for expr, want := range cases {
		out, err := calc.Invoke(context.Background(), expr, "")
		require.NoError(t, err, expr)
		assert.Equal(t, want, out, expr)
	}
}

func TestCalculatorErrors(t *testing.T) {
	calc := NewCalculator()

	for _, expr := range []string{"", "1 +", "(1 + 2", "1 / 0", "two plus two", "1 2"} {
		_, err := calc.Invoke(context.Background(), expr, "")
		assert.Error(t, err, expr)
	}
}

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "agentpilot/1.0", r.Header.Get("User-Agent"))
		fmt.Fprint(w, "page body")
	}))
	defer srv.Close()

	fetch := NewHTTPFetch()
	out, err := fetch.Invoke(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "page body", out)
}

func TestHTTPFetchCapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 2048))
	}))
	defer srv.Close()

	fetch := NewHTTPFetch(func(o *HTTPFetchOptions) { o.MaxBodyBytes = 100 })
	out, err := fetch.Invoke(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Len(t, out, 100)
}

func TestHTTPFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetch := NewHTTPFetch()

	_, err := fetch.Invoke(context.Background(), srv.URL, "")
	assert.ErrorContains(t, err, "status 500")

	_, err = fetch.Invoke(context.Background(), "ftp://example.com/file", "")
	assert.ErrorContains(t, err, "scheme")

	_, err = fetch.Invoke(context.Background(), "://not a url", "")
	assert.Error(t, err)
}

func TestWebSearchWithoutBackend(t *testing.T) {
	search := NewWebSearch()

	out, err := search.Invoke(context.Background(), "golang generics", "")
	require.NoError(t, err)
	assert.Contains(t, out, "not configured")
}

func TestWebSearchWithBackend(t *testing.T) {
	search := NewWebSearch(func(o *WebSearchOptions) {
		o.Search = func(_ context.Context, query string) (string, error) {
			return "results for " + query, nil
		}
	})

	out, err := search.Invoke(context.Background(), "golang generics", "")
	require.NoError(t, err)
	assert.Equal(t, "results for golang generics", out)
}

func TestDefaultTools(t *testing.T) {
	tools := DefaultTools()
	require.Len(t, tools, 3)

	ids := make([]string, 0, len(tools))
	for _, tl := range tools {
		ids = append(ids, tl.ID())
	}
	assert.ElementsMatch(t, []string{"calculator", "http_fetch", "web_search"}, ids)
}
