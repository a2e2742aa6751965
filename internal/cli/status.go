package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/haskel/collswitch/internal/server"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the contexts of a running server",
	Long:  `Query the running collswitch server for its allocation contexts and their current types.`,
	RunE:  runStatus,
}

var statusDomain string

func init() {
	statusCmd.Flags().StringVar(&statusDomain, "domain", "", "only show contexts of this domain (list, set, map)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := NewClient()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("server is not running: %w", err)
	}

	path := "/contexts"
	if statusDomain != "" {
		path += "?domain=" + url.QueryEscape(statusDomain)
	}

	if jsonOut {
		data, err := client.Get(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to get contexts: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	var result server.ContextsResponse
	if err := client.GetJSON(ctx, path, &result); err != nil {
		return fmt.Errorf("failed to get contexts: %w", err)
	}

	printContexts(cmd.OutOrStdout(), &result)
	return nil
}

func printContexts(w io.Writer, result *server.ContextsResponse) {
	fmt.Fprintln(w, "=== Contexts ===")
	if result.Total == 0 {
		fmt.Fprintln(w, "\nNo contexts registered")
		return
	}

	fmt.Fprintf(w, "\n%-28s %-5s %-11s %8s %8s %8s\n", "ID", "Dom", "Current", "Analyses", "Switches", "Failures")
	for _, c := range result.Contexts {
		fmt.Fprintf(w, "%-28s %-5s %-11s %8d %8d %8d\n",
			c.ID, c.Domain, c.Current, c.Optimizer.Analyses, c.Optimizer.Switches, c.Optimizer.Failures)
	}
	fmt.Fprintf(w, "\nTotal: %d\n", result.Total)
}
