package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "chessctl",
		Short: "CLI tool for the signed chess session API",
		Long: `chessctl is a CLI tool for playing on a signed chess server.

It keeps secp256k1 key pairs in a local key directory, signs moves with them,
and can follow a session's realtime updates over a websocket.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: CHESSCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.KeyDir, "key-dir", cfg.KeyDir, "Directory holding key pairs (env: CHESSCTL_KEY_DIR)")
	rootCmd.PersistentFlags().StringVarP(&cfg.KeyName, "key", "k", cfg.KeyName, "Name of the key pair to use (env: CHESSCTL_KEY)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newKeygenCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newJoinCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newRedoCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
