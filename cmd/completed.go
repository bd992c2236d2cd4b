package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/skyplan/core/registry"
	"github.com/kilianp07/skyplan/infra/store"
)

var completedCmd = &cobra.Command{
	Use:   "completed",
	Short: "List the completed fields of the registry",
	RunE:  runCompleted,
}

func init() {
	rootCmd.AddCommand(completedCmd)
}

func runCompleted(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("registry store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			if _, ferr := fmt.Fprintf(cmd.ErrOrStderr(), "error while closing store: %v\n", err); ferr != nil {
				fmt.Println("failed to write to stderr:", ferr)
			}
		}
	}()
	entries, err := st.Load(cmd.Context())
	if err != nil {
		return err
	}
	reg := registry.New(cfg.Scheduler.AllowRevisits())
	reg.Seed(entries)
	return registry.WriteCSV(cmd.OutOrStdout(), reg.Entries())
}
