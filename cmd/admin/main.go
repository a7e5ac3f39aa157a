// Command admin runs maintenance tasks against the configured store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"socialql/internal/config"
	"socialql/internal/server"

	"github.com/spf13/cobra"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "socialql maintenance commands",
	SilenceUsage: true,
}

var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create indexes (mongo) or migrate tables (postgres, sqlite)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *server.Store) error {
			if err := store.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			fmt.Printf("Schema ready for %s store\n", store.Driver)
			return nil
		})
	},
}

var listUsersCmd = &cobra.Command{
	Use:   "list-users",
	Short: "Print every registered user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *server.Store) error {
			users, err := store.Users.List(ctx)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(users)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tCREATED")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.CreatedAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		})
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the store is reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *server.Store) error {
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("%s store unreachable: %w", store.Driver, err)
			}
			fmt.Printf("%s store is reachable\n", store.Driver)
			return nil
		})
	},
}

func withStore(ctx context.Context, fn func(context.Context, *server.Store) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, err := server.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = store.Close(context.Background()) }()
	return fn(ctx, store)
}

func init() {
	listUsersCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.AddCommand(ensureIndexesCmd, listUsersCmd, pingCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
