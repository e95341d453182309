package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <pseudo>",
		Short: "Register a pseudo and remember it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Register(args[0])
			if err != nil {
				return err
			}

			if err := cfg.SavePseudo(result.Pseudo); err != nil {
				return fmt.Errorf("failed to save pseudo: %w", err)
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered pseudo",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ClearPseudo(); err != nil {
				return err
			}

			output(cmd).PrintMessage("Logged out")
			return nil
		},
	}
}

func newPlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "player [pseudo]",
		Short: "Show a player's stats, rank and recent games",
		Long:  "Show a player's stats, rank and recent games. Defaults to the remembered pseudo.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var flag string
			if len(args) == 1 {
				flag = args[0]
			}
			pseudo, err := currentPseudo(flag)
			if err != nil {
				return err
			}

			result, err := client.Player(pseudo)
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
