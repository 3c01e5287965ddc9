package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/postfeed/internal/infra/storage/postgres"
	"github.com/vietddude/postfeed/internal/publishing/feed"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Append the posts of a JSON feed file to the posts table",
	Args:  cobra.MaximumNArgs(1),
	Run:   runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := context.Background()

	path := cfg.Feed.Path
	if len(args) == 1 {
		path = args[0]
	}
	if cfg.Database.URL == "" {
		slog.Error("database.url is required for import")
		os.Exit(1)
	}

	// Unlike serving, a bad file must not turn into the fallback entry.
	posts, err := feed.NewFileSource(path).Posts(ctx)
	if err != nil {
		slog.Error("Failed to read feed", "path", path, "error", err)
		os.Exit(1)
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	repo := postgres.NewPostRepo(db, cfg.Database.Table)
	if err := repo.SaveBatch(ctx, posts); err != nil {
		slog.Error("Failed to save posts", "error", err)
		os.Exit(1)
	}
	total, err := repo.Count(ctx)
	if err != nil {
		slog.Warn("Failed to count posts", "error", err)
	}
	slog.Info("Posts imported", "path", path, "count", len(posts), "total", total)
}
