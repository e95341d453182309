package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
	queue  *Queue
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "tbctl",
		Short: "CLI tool for the Territory Battle leaderboard API",
		Long: `tbctl talks to the Territory Battle leaderboard API.

It registers a pseudo, submits finished games, and shows the leaderboards.
Games that cannot reach the server are kept in a local queue and can be
sent later with "tbctl queue flush".`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Output != "text" && cfg.Output != "json" {
				return fmt.Errorf("invalid --output %q: must be text or json", cfg.Output)
			}
			client = NewClient(cfg.ServerURL)
			queue = NewQueue(cfg.QueueFile)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: TB_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.ProfileFile, "profile", cfg.ProfileFile, "File remembering the current pseudo (env: TB_PROFILE)")
	rootCmd.PersistentFlags().StringVar(&cfg.QueueFile, "queue-file", cfg.QueueFile, "Offline queue file (env: TB_QUEUE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newRecentCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newQueueCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func output(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout())
}

// currentPseudo returns the flag value if set, else the remembered pseudo
func currentPseudo(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	pseudo, err := cfg.LoadPseudo()
	if err != nil {
		return "", err
	}
	if pseudo == "" {
		return "", fmt.Errorf("not registered: run tbctl register <pseudo> or pass --pseudo")
	}
	return pseudo, nil
}
