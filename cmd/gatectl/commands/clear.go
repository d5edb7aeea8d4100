package commands

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

// NewClearCmd creates the clear command.
func NewClearCmd() *cobra.Command {
	var scope, clientID, path string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear rate limit counters",
		Long:  "Delete matching counters so the next request from the target is evaluated fresh. Requires --client-id or --path.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientID == "" && path == "" {
				return fmt.Errorf("at least one of --client-id or --path is required")
			}
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
			resp, err := c.do(http.MethodDelete, "/clear", query)
			if err != nil {
				return err
			}
			return printJSON(resp["data"])
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "Filter by scope (global or endpoint)")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Client identifier to clear")
	cmd.Flags().StringVar(&path, "path", "", "Endpoint path to clear")
	return cmd
}
