package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Health()
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show global totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Stats()
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
