package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// DefaultServer is the admin API base URL when --server is not given.
const DefaultServer = "http://localhost:8080"

const adminBasePath = "/admin/rate-limiter"

// client is a thin wrapper over the admin HTTP API.
type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// newClient builds a client from the command's persistent flags. The API key
// falls back to GATECTL_API_KEY.
func newClient(cmd *cobra.Command) (*client, error) {
	server, err := cmd.Flags().GetString("server")
	if err != nil {
		return nil, err
	}
	apiKey, err := cmd.Flags().GetString("api-key")
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		apiKey = os.Getenv("GATECTL_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("--api-key is required (or set GATECTL_API_KEY)")
	}
	return &client{
		baseURL: strings.TrimRight(server, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// do issues a request against the admin API and decodes the JSON envelope.
func (c *client) do(method, path string, query url.Values) (map[string]any, error) {
	u := c.baseURL + adminBasePath + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode >= 400 {
		msg, _ := envelope["message"].(string)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}
	return envelope, nil
}

// printJSON pretty-prints a response field for the operator.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
