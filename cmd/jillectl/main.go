package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/winnerx0/jille-client/internal/api"
	"github.com/winnerx0/jille-client/internal/config"
	"github.com/winnerx0/jille-client/internal/credstore"
	"github.com/winnerx0/jille-client/internal/logging"
)

var (
	cfg    *config.Config
	client *api.Client

	flagBackendURL string
)

var rootCmd = &cobra.Command{
	Use:   "jillectl",
	Short: "Command-line client for the jille polling service",
	Long: `jillectl talks to a jille backend: create polls, cast votes, and watch
live results. Credentials are stored locally and renewed automatically
when they expire.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		logging.Init(cfg.LogLevel, "jillectl")

		if flagBackendURL != "" {
			cfg.BackendURL = flagBackendURL
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		client = api.New(cfg.BackendURL, store)
		return nil
	},
}

// openStore picks the credential backend: Redis when configured (shared
// across processes, last-writer-wins), the session file otherwise.
func openStore(cfg *config.Config) (credstore.Store, error) {
	if cfg.RedisURL != "" {
		store, err := credstore.NewRedisStore(cfg.RedisURL, "jille:session")
		if err != nil {
			return nil, fmt.Errorf("open redis credential store: %w", err)
		}
		return store, nil
	}
	store, err := credstore.NewFileStore(cfg.CredentialFile)
	if err != nil {
		return nil, fmt.Errorf("open credential file: %w", err)
	}
	return store, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagBackendURL, "backend", "", "backend base URL (overrides JILLE_BACKEND_URL)")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, pollCmd, voteCmd, watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
