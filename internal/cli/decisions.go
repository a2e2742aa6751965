package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/haskel/collswitch/internal/storage"
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions [file]",
	Short: "Summarize a decision log",
	Long: `Read a JSON lines decision log written with --decision-log and summarize
the decisions per context. Without a file argument the configured decision
log is read; "-" reads standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecisions,
}

// DecisionSummary aggregates the decisions of one context.
type DecisionSummary struct {
	Context   string `json:"context"`
	Domain    string `json:"domain"`
	Decisions int    `json:"decisions"`
	Switches  int    `json:"switches"`
	First     string `json:"first"`
	Last      string `json:"last"`
}

func init() {
	rootCmd.AddCommand(decisionsCmd)
}

func runDecisions(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Adaptation.DecisionLog
	}

	if path == "" {
		return fmt.Errorf("no decision log specified (pass a file or configure decision_log)")
	}

	var r io.Reader
	if path == storage.StdoutDestination {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open decision log: %w", err)
		}
		defer f.Close()
		r = f
	}

	records, err := storage.ReadDecisions(r)
	if err != nil {
		return err
	}

	summaries := summarizeDecisions(records)

	if jsonOut {
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "=== Decisions ===")
	if len(summaries) == 0 {
		fmt.Fprintln(w, "\nNo decisions recorded")
		return nil
	}
	fmt.Fprintf(w, "\n%-28s %-5s %9s %8s  %s\n", "Context", "Dom", "Decisions", "Switches", "Path")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-28s %-5s %9d %8d  %s → %s\n",
			s.Context, s.Domain, s.Decisions, s.Switches, s.First, s.Last)
	}
	fmt.Fprintf(w, "\nTotal: %d decisions\n", len(records))
	return nil
}

// summarizeDecisions groups records by context in log order.
func summarizeDecisions(records []storage.DecisionRecord) []DecisionSummary {
	byContext := make(map[string]*DecisionSummary)
	for _, rec := range records {
		s, ok := byContext[rec.Context]
		if !ok {
			s = &DecisionSummary{
				Context: rec.Context,
				Domain:  rec.Domain,
				First:   rec.Old,
			}
			byContext[rec.Context] = s
		}
		s.Decisions++
		if rec.Switched() {
			s.Switches++
		}
		s.Last = rec.New
	}

	summaries := make([]DecisionSummary, 0, len(byContext))
	for _, s := range byContext {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Context < summaries[j].Context
	})
	return summaries
}
