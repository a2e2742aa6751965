package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haskel/collswitch/internal/decision/model"
	"github.com/haskel/collswitch/internal/storage"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the cost models",
	Long: `Display the cost models the optimizer predicts with: the built-in models,
or the models file from the configuration merged over them.

The output is validated against the configured goal dimensions and can be
exported as a starting point for a custom models file.`,
	Example: `  collswitch models
  collswitch models --models ./models.yaml --json
  collswitch models --export ./models.yaml`,
	RunE: runModels,
}

var modelsExport string

func init() {
	modelsCmd.Flags().StringVar(&modelsExport, "export", "", "write the models as YAML to this path")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	goal, err := cfg.Adaptation.Goal()
	if err != nil {
		return err
	}

	factory, err := model.NewFactory(model.Config{File: cfg.Adaptation.ModelsFile})
	if err != nil {
		return err
	}
	if err := factory.ValidateAll(goal.Major, goal.Minor); err != nil {
		return fmt.Errorf("models do not cover the goal: %w", err)
	}

	specs := factory.Specs()

	if modelsExport != "" {
		if err := storage.WriteFileAtomic(modelsExport, specs.Write); err != nil {
			return fmt.Errorf("failed to export models: %w", err)
		}
		if !jsonOut {
			fmt.Fprintf(cmd.OutOrStdout(), "Models written to %s\n", modelsExport)
		}
		return nil
	}

	if jsonOut {
		data, err := json.MarshalIndent(specs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	return specs.Write(cmd.OutOrStdout())
}
