package cmd

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/mint-cli/credentials"
	"github.com/otherjamesbrown/mint-cli/pkg/db"
	"github.com/otherjamesbrown/mint-cli/pkg/tracker"
)

// Database command flags
var (
	dbLoginUser  string
	dbLoginRedis bool
)

// NewDbCommand creates the root db command with all subcommands.
func NewDbCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands.

The db command connects directly to PostgreSQL. Connection settings come
from the config file and MINT_DB_* environment variables; the password
comes from the credentials store or MINT_DB_PASSWORD.

Examples:
  # Store the database password securely
  mint db login

  # Create tables and indexes
  mint db init

  # Check connectivity and pool health
  mint db health`,
		Aliases: []string{"database"},
	}

	cmd.AddCommand(newDbInitCommand())
	cmd.AddCommand(newDbHealthCommand())
	cmd.AddCommand(newDbLoginCommand())

	return cmd
}

func newDbInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema",
		Long: `Create the meetings, actions and history tables with their indexes.

The statements are idempotent; running init against an existing database
is safe and applies nothing that already exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig("")
			if err != nil {
				return err
			}

			pool, err := connectToDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := tracker.InitSchema(cmd.Context(), pool); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Schema initialized.")
			return nil
		},
	}
}

func newDbHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity and pool health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig("")
			if err != nil {
				return err
			}

			pool, err := connectToDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			status := db.Check(cmd.Context(), pool)
			out := cmd.OutOrStdout()
			if !status.Healthy {
				return fmt.Errorf("database unhealthy: %v", status.Error)
			}

			fmt.Fprintln(out, "Database healthy")
			fmt.Fprintf(out, "  latency:        %s\n", status.Latency)
			fmt.Fprintf(out, "  total conns:    %d\n", status.TotalConns)
			fmt.Fprintf(out, "  idle conns:     %d\n", status.IdleConns)
			fmt.Fprintf(out, "  acquired conns: %d\n", status.AcquiredConns)
			return nil
		},
	}
}

func newDbLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the database password in the credentials store",
		Long: `Prompt for the database password and store it encrypted.

The encryption key lives in the system keyring (macOS Keychain, Windows
Credential Manager, Linux Secret Service). In CI, set MINT_ENCRYPTION_KEY
instead.

Examples:
  mint db login
  mint db login --user mint
  mint db login --redis   # also prompt for the Redis password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credentials.NewStore()
			if err != nil {
				return fmt.Errorf("opening credentials store: %w", err)
			}

			creds, err := store.Load()
			if err != nil {
				creds = &credentials.Credentials{}
			}

			if dbLoginUser != "" {
				creds.DatabaseUser = dbLoginUser
			}

			password, err := promptPassword("Database password: ")
			if err != nil {
				return err
			}
			creds.DatabasePassword = password

			if dbLoginRedis {
				redisPassword, err := promptPassword("Redis password (empty for none): ")
				if err != nil {
					return err
				}
				creds.RedisPassword = redisPassword
			}

			if err := store.Save(creds); err != nil {
				return fmt.Errorf("saving credentials: %w", err)
			}

			path, _ := credentials.CredentialsPath()
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dbLoginUser, "user", "u", "", "Database user the password belongs to")
	cmd.Flags().BoolVar(&dbLoginRedis, "redis", false, "Also prompt for the Redis password")

	return cmd
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}
