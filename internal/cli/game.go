package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/territorybattle/internal/api/request"
)

func newSubmitCmd() *cobra.Command {
	var (
		pseudo string
		data   string
		game   request.SubmitGameRequest
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a finished game",
		Long: `Submit a finished game for the remembered pseudo (or --pseudo).

If the server cannot be reached, is rate limiting or fails, the game is
queued locally; send queued games later with "tbctl queue flush".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := currentPseudo(pseudo)
			if err != nil {
				return err
			}
			game.Pseudo = p

			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data must be valid JSON")
				}
				game.GameData = json.RawMessage(data)
			}

			out := output(cmd)
			result, err := client.SubmitGame(game)
			if err == nil {
				out.Print(result)
				return nil
			}
			if IsRejected(err) {
				return err
			}

			if qerr := queue.Append(game); qerr != nil {
				return fmt.Errorf("%w (and could not queue the game: %v)", err, qerr)
			}
			out.PrintMessage(fmt.Sprintf("Submission failed, game queued: %v", err))
			return nil
		},
	}

	cmd.Flags().StringVar(&pseudo, "pseudo", "", "Pseudo to submit for (default: remembered pseudo)")
	cmd.Flags().IntVar(&game.Score, "score", 0, "Final score")
	cmd.Flags().IntVar(&game.TerritoriesConquered, "territories", 0, "Territories conquered")
	cmd.Flags().IntVar(&game.UnitsLost, "units-lost", 0, "Units lost")
	cmd.Flags().IntVar(&game.UnitsKilled, "units-killed", 0, "Units killed")
	cmd.Flags().IntVar(&game.TurnsPlayed, "turns", 0, "Turns played")
	cmd.Flags().BoolVar(&game.Won, "won", false, "The game was won")
	cmd.Flags().StringVar(&data, "data", "", "Extra game data as a JSON document")

	return cmd
}

func newRecentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the latest games across all players",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.RecentGames(limit)
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Number of games (server default 20, max 50)")

	return cmd
}
