package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// NewWhitelistCmd creates the whitelist command with list, add, and remove
// subcommands.
func NewWhitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the rate limiter whitelist",
		Long:  "List, add, or remove identifiers exempt from rate limiting.",
	}
	cmd.AddCommand(newWhitelistListCmd())
	cmd.AddCommand(newWhitelistAddCmd())
	cmd.AddCommand(newWhitelistRemoveCmd())
	return cmd
}

func newWhitelistListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List whitelisted identifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			resp, err := c.do(http.MethodGet, "/whitelist", nil)
			if err != nil {
				return err
			}
			return printJSON(resp["data"])
		},
	}
}

func newWhitelistAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <identifier>",
		Short: "Add an identifier to the whitelist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if _, err := c.do(http.MethodPost, "/whitelist/"+args[0], nil); err != nil {
				return err
			}
			fmt.Printf("Whitelisted %s\n", args[0])
			return nil
		},
	}
}

func newWhitelistRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <identifier>",
		Short: "Remove an identifier from the whitelist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if _, err := c.do(http.MethodDelete, "/whitelist/"+args[0], nil); err != nil {
				return err
			}
			fmt.Printf("Removed %s from whitelist\n", args[0])
			return nil
		},
	}
}
