package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NicolasAcosta04/SCR/internal/category"
	"github.com/NicolasAcosta04/SCR/internal/config"
	"github.com/NicolasAcosta04/SCR/internal/feedcache"
	"github.com/NicolasAcosta04/SCR/internal/newsapi"
	"github.com/NicolasAcosta04/SCR/internal/orchestrator"
	"github.com/NicolasAcosta04/SCR/internal/prefs"
	"github.com/NicolasAcosta04/SCR/internal/snapshot"
)

func runFeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	client := newClient(cfg)

	model := prefs.NewModel(client,
		prefs.WithLogger(logger),
		prefs.WithPersistTimeout(cfg.Timeout()))
	defer model.Close()
	seedPreferences(ctx, client, model, cfg, logger)

	cache := feedcache.New(feedcache.WithTTL(cfg.TTL()))
	orch := orchestrator.New(client, model, cache,
		orchestrator.WithLogger(logger),
		orchestrator.WithPageSize(cfg.GetPageSize()),
		orchestrator.WithSortBy(cfg.GetSortBy()),
		orchestrator.WithTimeout(cfg.Timeout()))
	defer orch.Close()

	store, storeErr := snapshot.Open(config.SnapshotPath())
	if storeErr != nil {
		logger.Warn("opening snapshot store", zap.Error(storeErr))
	} else {
		defer store.Close()
		if _, err := store.Prune(cfg.SnapshotRetentionDuration()); err != nil {
			logger.Warn("pruning snapshot", zap.Error(err))
		}
	}

	if flagRefresh {
		orch.Refresh(ctx)
	} else {
		orch.Init(ctx)
	}
	orch.Wait()
	for p := 1; p < flagPages && orch.Scroll(ctx); p++ {
		orch.Wait()
	}

	if err := orch.Err(); err != nil {
		// Degrade to the last session's snapshot when the backend is down.
		if store != nil {
			if cached, _, savedAt, loadErr := store.Load(); loadErr == nil && len(cached) > 0 {
				fmt.Printf("Backend unreachable; showing %d cached article(s) from %s.\n\n",
					len(cached), savedAt.Local().Format("Jan 2 15:04"))
				printArticles(cached)
			}
		}
		return fmt.Errorf("fetching feed: %w", err)
	}

	articles, hasMore := orch.Articles()
	if len(articles) == 0 {
		fmt.Println("No articles for your preferences right now.")
		return nil
	}
	printArticles(articles)
	if hasMore {
		fmt.Println("\nMore available: rerun with --pages to fetch further.")
	} else {
		fmt.Println("\nEnd of feed.")
	}

	if store != nil {
		if err := store.Save(articles, orch.Fingerprint()); err != nil {
			logger.Warn("saving snapshot", zap.Error(err))
		}
	}
	return nil
}

func newClient(cfg *config.Config) *newsapi.Client {
	return newsapi.New(newsapi.Config{
		ModelAPIURL: cfg.ModelAPIURL,
		AuthAPIURL:  cfg.AuthAPIURL,
		Token:       cfg.ResolvedToken(),
		UserID:      cfg.ResolvedUserID(),
		Timeout:     cfg.Timeout(),
	})
}

// seedPreferences loads the persisted category list, falling back to the
// configured defaults when the preference store is unreachable.
func seedPreferences(ctx context.Context, client *newsapi.Client, model *prefs.Model, cfg *config.Config, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	codes, err := client.Preferences(ctx)
	if err != nil {
		logger.Warn("loading preferences, using configured defaults", zap.Error(err))
		model.Seed(cfg.Categories())
		return
	}
	cats := make([]category.Category, 0, len(codes))
	for _, c := range codes {
		cats = append(cats, category.Category(c))
	}
	model.Seed(cats)
}

func printArticles(articles []feedcache.Article) {
	for i, a := range articles {
		line := fmt.Sprintf("%2d. [%s] %s", i+1, strings.ToUpper(a.Category), a.Title)
		if a.Source != "" {
			line += " - " + a.Source
		}
		if !a.PublishedAt.IsZero() {
			line += " (" + a.PublishedAt.Local().Format("Jan 2") + ")"
		}
		fmt.Println(line)
		if a.URL != "" {
			fmt.Printf("    %s\n", a.URL)
		}
	}
}
