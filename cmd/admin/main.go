package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/shipbridge/internal/core/config"
	"github.com/vietddude/shipbridge/internal/core/worker"
	"github.com/vietddude/shipbridge/internal/infra/storage"
	"github.com/vietddude/shipbridge/internal/infra/storage/postgres"
)

const usage = `usage: admin [-config path] <command>

commands:
  runs [-status aborted] [-limit 20]   list stored fulfillment runs
  prune [-older-than 720h]             delete finished runs
`

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	stylelog.InitDefault()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	// Admin never calls the upstream platforms, so their keys are not required.
	cfg, err := config.Load(*configPath, config.WithMockMode(true))
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("database.url is required; memory runs live only inside the server")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()
	repo := postgres.NewRunRepo(db)

	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "runs":
		err = listRuns(ctx, repo, args)
	case "prune":
		err = prune(ctx, repo, cfg.Fulfillment.RunRetention, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func listRuns(ctx context.Context, repo storage.RunRepository, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	status := fs.String("status", string(storage.RunAborted), "running, succeeded or aborted")
	limit := fs.Int("limit", 20, "maximum runs to show")
	_ = fs.Parse(args)

	runs, err := repo.ListByStatus(ctx, storage.RunStatus(*status), *limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tPATH\tFAILED STEP\tCUSTOMER\tORDER\tTRACKING\tUPDATED")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, dash(r.Path), dash(r.FailedStep), dash(r.CustomerID), dash(r.OrderID),
			dash(r.TrackingNumber), r.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func prune(ctx context.Context, repo storage.RunRepository, retention time.Duration, args []string) error {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	olderThan := fs.Duration("older-than", retention, "delete finished runs older than this")
	_ = fs.Parse(args)

	if *olderThan <= 0 {
		return fmt.Errorf("retention must be positive, got %s", *olderThan)
	}
	n := worker.NewPruner(*olderThan, repo).Prune(ctx)
	fmt.Printf("Pruned %d fulfillment runs older than %s\n", n, *olderThan)
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
