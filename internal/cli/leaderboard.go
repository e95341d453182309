package cli

import (
	"github.com/spf13/cobra"
)

func newLeaderboardCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the ranked leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Leaderboard(limit, offset)
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (server default 10, max 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")

	cmd.AddCommand(&cobra.Command{
		Use:   "wins",
		Short: "Show the players with the most wins",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.TopWins()
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "scores",
		Short: "Show the best single-game scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.TopScores()
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}
