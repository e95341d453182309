package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/territorybattle/internal/api/request"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage games waiting to be sent",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List queued games",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := queue.List()
			if err != nil {
				return err
			}

			output(cmd).Print(entries)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Send queued games in order, stopping at the first network failure",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := queue.Flush(func(game request.SubmitGameRequest) error {
				_, err := client.SubmitGame(game)
				return err
			})
			if err != nil {
				return err
			}

			output(cmd).Print(res)
			if res.Err != nil {
				return fmt.Errorf("stopped with %d pending: %w", res.Pending, res.Err)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every queued game",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := queue.Clear(); err != nil {
				return err
			}

			output(cmd).PrintMessage("Queue cleared")
			return nil
		},
	})

	return cmd
}
