package commands

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	var scope, clientID, path string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show current rate limit counters",
		Long:  "Fetch live counter state, optionally filtered by scope, client identifier, or endpoint path.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			query := url.Values{}
			if scope != "" {
				query.Set("scope", scope)
			}
			if clientID != "" {
				query.Set("client_id", clientID)
			}
			if path != "" {
				query.Set("path", path)
			}
			resp, err := c.do(http.MethodGet, "/stats", query)
			if err != nil {
				return err
			}
			return printJSON(resp["data"])
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "Filter by scope (global or endpoint)")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Filter by client identifier")
	cmd.Flags().StringVar(&path, "path", "", "Filter by endpoint path")
	return cmd
}
