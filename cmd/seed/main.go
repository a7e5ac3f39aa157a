// Command seed fills the configured store with demo data.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"socialql/internal/cache"
	"socialql/internal/config"
	"socialql/internal/repository"
	"socialql/internal/seed"
	"socialql/internal/server"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	opts   seed.Options
	dryRun bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the store with fake users, posts, comments and likes",
	Long: `Generates demo content through the same services the API uses.
With --dry-run nothing is written: the data is generated in memory and
printed as JSON.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().IntVar(&opts.Users, "users", 10, "Number of users to create")
	rootCmd.Flags().IntVar(&opts.Posts, "posts", 30, "Number of posts to create")
	rootCmd.Flags().IntVar(&opts.MaxComments, "max-comments", 5, "Maximum comments per post")
	rootCmd.Flags().IntVar(&opts.LikeChance, "like-chance", 30, "Chance (0-100) that a user likes a post")
	rootCmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed for reproducible content (0 = random)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate in memory and print JSON instead of writing")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx := cmd.Context()

	var memory *repository.MemoryStore
	var store *server.Store
	if dryRun {
		log.Println("[dry-run] generating data in memory")
		memory = repository.NewMemoryStore()
		store = server.MemoryStore(memory)
	} else {
		store, err = server.OpenStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close(ctx)
			return fmt.Errorf("failed to prepare store: %w", err)
		}
	}
	defer func() { _ = store.Close(context.Background()) }()

	// Real runs share Redis with the API so cached post lists get invalidated.
	var rdb *redis.Client
	if !dryRun {
		rdb = cache.Connect(cfg.RedisURL)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	srv, err := server.NewServerWithDeps(cfg, store, rdb)
	if err != nil {
		return err
	}

	sum, err := seed.NewSeeder(srv.UserService(), srv.PostService(), opts).Run(ctx)
	if err != nil {
		return fmt.Errorf("seeding failed after %s: %w", sum, err)
	}

	if memory != nil {
		out, err := memory.Snapshot()
		if err != nil {
			return err
		}
		_, _ = os.Stdout.Write(append(out, '\n'))
		return nil
	}
	log.Printf("Seeding complete. Accounts use password %q", seed.DefaultPassword)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
