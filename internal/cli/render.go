package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/postfeed/internal/control"
)

var outPath string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the feed once and write the page",
	Run:   runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := context.Background()

	app, err := control.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize postfeed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Site().Refresh(ctx); err != nil {
		slog.Error("Failed to render feed", "error", err)
		os.Exit(1)
	}
	b, _ := app.Site().Current()

	if outPath == "" {
		_, _ = os.Stdout.Write(b.HTML)
		return
	}
	if err := os.WriteFile(outPath, b.HTML, 0o644); err != nil {
		slog.Error("Failed to write page", "path", outPath, "error", err)
		os.Exit(1)
	}
	slog.Info("Page written", "path", outPath, "posts", len(b.Posts), "fallback", b.Fallback)
}
