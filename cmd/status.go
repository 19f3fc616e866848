package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/NicolasAcosta04/SCR/internal/config"
	"github.com/NicolasAcosta04/SCR/internal/snapshot"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Fetch server-ranked recommendations",
	Long:  "Fetch personalized recommendations ranked by the backend; no query composition is involved.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		client := newClient(cfg)

		articles, err := client.Recommendations(cmd.Context(), cfg.GetPageSize(), 1)
		if err != nil {
			return fmt.Errorf("fetching recommendations: %w", err)
		}
		if len(articles) == 0 {
			fmt.Println("No recommendations yet. Read some articles first.")
			return nil
		}
		printArticles(articles)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collaborator health and snapshot statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		client := newClient(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err := client.Health(ctx); err != nil {
			fmt.Printf("Backend:  unreachable (%v)\n", err)
		} else {
			fmt.Println("Backend:  ok")
		}

		dbPath := config.SnapshotPath()
		store, err := snapshot.Open(dbPath)
		if err != nil {
			fmt.Printf("Snapshot: unavailable (%v)\n", err)
			return nil
		}
		defer store.Close()

		count, size, err := store.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading snapshot stats: %w", err)
		}
		_, _, savedAt, err := store.Load()
		if err != nil {
			return fmt.Errorf("reading snapshot: %w", err)
		}

		fmt.Printf("Snapshot: %s\n", dbPath)
		fmt.Printf("Articles: %d\n", count)
		fmt.Printf("Size:     %s\n", formatBytes(size))
		if !savedAt.IsZero() {
			fmt.Printf("Saved:    %s\n", savedAt.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
