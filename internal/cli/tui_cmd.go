package cli

import (
	"time"

	"github.com/haskel/collswitch/internal/cli/tui"
	"github.com/spf13/cobra"
)

var (
	refreshInterval time.Duration
	tuiURL          string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	Long: `Launch an interactive terminal user interface that follows the allocation
contexts of a running server in real-time.

Examples:
  collswitch tui                    # Basic launch with default settings
  collswitch tui --refresh 500ms    # Faster refresh rate
  collswitch tui --host 10.0.0.1    # Connect to remote server
  collswitch tui --url https://collswitch.internal`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().DurationVar(&refreshInterval, "refresh", time.Second, "dashboard refresh interval")
	tuiCmd.Flags().StringVar(&tuiURL, "url", "", "server base URL (overrides --host and --port)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	serverURL := tuiURL
	if serverURL == "" {
		serverURL = GetServerURL()
	}

	config := tui.Config{
		ServerURL:       serverURL,
		RefreshInterval: refreshInterval,
	}

	return tui.Run(config)
}
