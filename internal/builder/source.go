package builder

import (
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/bstdenis/xscen/api"
)

//go:embed default_schema.yml
var defaultSchema []byte

// DefaultSchema returns the built-in path schema.
func DefaultSchema() api.Schema {
	s, err := api.ParseSchema(defaultSchema)
	if err != nil {
		panic(fmt.Sprintf("embedded schema: %v", err))
	}
	return s
}

// LoadSchema reads a path schema from a local file or, when the source is
// an http(s) URL, from the network. An empty source selects the built-in
// default.
func LoadSchema(source string) (api.Schema, error) {
	if source == "" {
		return DefaultSchema(), nil
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return fetchSchema(source)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read path schema %s: %w", source, err)
	}
	return api.ParseSchema(data)
}

// fetchSchema retrieves a schema document over HTTP. One plain GET, no
// retries: schema hosts are expected to be reliable and a failure should
// surface immediately.
func fetchSchema(url string) (api.Schema, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch path schema %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch path schema %s: status %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch path schema %s: %w", url, err)
	}
	return api.ParseSchema(data)
}
