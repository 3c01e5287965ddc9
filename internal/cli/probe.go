package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/postfeed/internal/control"
	"github.com/vietddude/postfeed/internal/core/domain"
	"github.com/vietddude/postfeed/internal/publishing/render"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Resolve every avatar and image of the feed and show the outcome",
	Run:   runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := context.Background()

	app, err := control.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize postfeed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	res := app.Feed().Load(ctx)
	if res.Fallback {
		slog.Warn("Feed could not be loaded, probing the fallback entry", "error", res.Err)
	}

	targets := make([]domain.LoadTarget, 0, 2*len(res.Posts))
	kinds := make([]string, 0, cap(targets))
	for _, p := range res.Posts {
		avatar, image := render.Targets(p)
		targets = append(targets, avatar, image)
		kinds = append(kinds, "avatar", "image")
	}

	resolved := app.Resolver().ResolveAll(ctx, targets)
	writeResolutions(os.Stdout, kinds, resolved)
}

// writeResolutions prints one row per slot: the requested reference and the
// source it finally settled on.
func writeResolutions(out io.Writer, kinds []string, resolved []domain.Resolution) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "POST\tSLOT\tSTATE\tBROKEN\tRETRIES\tREFERENCE\tSOURCE")
	for i, r := range resolved {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%d\t%s\t%s\n",
			i/2, kinds[i], r.State, r.Broken, r.Attempts, shorten(r.Reference), shorten(r.Source))
	}
	_ = w.Flush()
}

func shorten(ref string) string {
	switch {
	case ref == "":
		return "-"
	case len(ref) > 60:
		return ref[:57] + "..."
	default:
		return ref
	}
}
