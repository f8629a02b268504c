package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/yihengz/trendscope/internal/config"
	"github.com/yihengz/trendscope/internal/scheduler"
	"github.com/yihengz/trendscope/internal/store"
	"github.com/yihengz/trendscope/pkg/alert"
	"github.com/yihengz/trendscope/pkg/explore"
	"github.com/yihengz/trendscope/pkg/recommend"
	"github.com/yihengz/trendscope/pkg/server"
	"github.com/yihengz/trendscope/pkg/trend"
	"github.com/yihengz/trendscope/pkg/video"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildProvider(cfg *config.Config) *video.Client {
	return video.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.ParseTimeout())
}

func buildSynchronizer(cfg *config.Config, db store.Store) *trend.Synchronizer {
	return trend.NewSynchronizer(db, buildProvider(cfg), cfg.Provider.FetchSize)
}

func buildRunner(cfg *config.Config, db store.Store) *explore.Runner {
	sources := []explore.CandidateSource{
		explore.NewHashtagSource(buildProvider(cfg), cfg.Provider.FetchSize),
	}
	if len(cfg.Explore.Feeds) > 0 {
		feeds := make([]explore.Feed, len(cfg.Explore.Feeds))
		for i, f := range cfg.Explore.Feeds {
			feeds[i] = explore.Feed{Name: f.Name, URL: f.URL}
		}
		sources = append(sources, explore.NewFeedSource(feeds))
	}

	var synthesizer *explore.InsightSynthesizer
	if cfg.LLM.Enabled && cfg.LLM.APIKey != "" {
		synthesizer = explore.NewInsightSynthesizer(cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.APIKey, cfg.LLM.BaseURL)
		fmt.Fprintf(os.Stderr, "insight synthesizer: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}

	engine := explore.NewEngine(sources, synthesizer, cfg.Explore.BranchLimit)
	return explore.NewRunner(engine, db)
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runAddKeyword(keyword, displayName, color string, priority int, userID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	kw := &store.TrackedKeyword{
		UserID:      userID,
		Keyword:     keyword,
		DisplayName: displayName,
		Color:       color,
		Priority:    priority,
	}
	if err := db.CreateKeyword(context.Background(), kw); err != nil {
		return err
	}

	fmt.Printf("tracking %q (id %d)\n", kw.Keyword, kw.ID)
	return nil
}

func runListKeywords(userID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	kws, err := db.ListKeywords(context.Background(), userID)
	if err != nil {
		return err
	}

	if len(kws) == 0 {
		fmt.Println("no tracked keywords (add one: trendscope keywords add <keyword>)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKEYWORD\tPRIORITY\tLAST ANALYZED")
	for _, kw := range kws {
		last := "never"
		if kw.LastAnalyzedAt != nil {
			last = kw.LastAnalyzedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", kw.ID, kw.Keyword, kw.Priority, last)
	}
	return w.Flush()
}

func runSync(userID string, keywordIDs []int64, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	summary, err := buildSynchronizer(cfg, db).Sync(context.Background(), userID, keywordIDs)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEYWORD\tSTATUS\tTREND\tVIRALITY\tGROWTH\tNOTE")
	for _, res := range summary.Results {
		if res.Snapshot != nil {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", res.Keyword, res.Status,
				res.Snapshot.TrendScore, res.Snapshot.ViralityScore, res.Snapshot.GrowthScore, res.Note)
		} else {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t%s\n", res.Keyword, res.Status, res.Note)
		}
	}
	w.Flush()

	fmt.Printf("\nsynced %d, skipped %d, failed %d\n", summary.Synced, summary.Skipped, summary.Failed)
	return nil
}

func runHeatmap(userID string, days int, metric string, jsonOutput bool) error {
	switch metric {
	case "trend", "virality", "growth":
	default:
		return fmt.Errorf("metric must be trend, virality or growth, got %q", metric)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	hm, err := trend.LoadHeatmap(context.Background(), db, userID, days)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hm)
	}

	if len(hm.Keywords) == 0 {
		fmt.Println("no tracked keywords")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
	fmt.Fprint(w, "KEYWORD")
	for _, date := range hm.Dates {
		fmt.Fprintf(w, "\t%s", date[5:]) // MM-DD
	}
	fmt.Fprintln(w)

	for ki, kw := range hm.Keywords {
		fmt.Fprint(w, kw)
		for di := range hm.Dates {
			cell := hm.Cells[ki*len(hm.Dates)+di]
			if !cell.HasData {
				fmt.Fprint(w, "\t.")
				continue
			}
			score := cell.TrendScore
			switch metric {
			case "virality":
				score = cell.ViralityScore
			case "growth":
				score = cell.GrowthScore
			}
			fmt.Fprintf(w, "\t%d", score)
		}
		fmt.Fprintln(w)
	}
	w.Flush()

	fmt.Printf("\navg trend score %.1f over %d populated cells\n",
		hm.Summary.AvgTrendScore, hm.Summary.PopulatedCells)
	if hm.Summary.TopGrowth != nil {
		fmt.Printf("top growth: %s (%d)\n", hm.Summary.TopGrowth.Keyword, hm.Summary.TopGrowth.Score)
	}
	if hm.Summary.TopViral != nil {
		fmt.Printf("top virality: %s (%d)\n", hm.Summary.TopViral.Keyword, hm.Summary.TopViral.Score)
	}
	return nil
}

func runExplore(seed string, depth int, strategy string, excludeKnown, withInsights, saveRecs bool, userID string, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	req := explore.Request{
		Seed:         seed,
		Depth:        depth,
		Strategy:     explore.Strategy(strategy),
		ExcludeKnown: excludeKnown,
		WithInsights: withInsights,
		MaxResults:   explore.MaxResultsFull,
		UserID:       userID,
	}

	result, err := buildRunner(cfg, db).Run(context.Background(), req)
	if err != nil {
		return err
	}

	if saveRecs && len(result.Discoveries) > 0 {
		recs := recommend.FromExploration(result, userID)
		if err := recommend.NewService(db).Save(context.Background(), recs); err != nil {
			fmt.Fprintf(os.Stderr, "save recommendations: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "saved %d pending recommendations\n", len(recs))
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if len(result.Discoveries) == 0 {
		fmt.Println("no discoveries")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tDEPTH\tKEYWORD\tVIA\tVIDEOS\tVIEWS")
	for _, d := range result.Discoveries {
		fmt.Fprintf(w, "%.1f\t%d\t%s\t%s\t%d\t%d\n",
			d.Score, d.Depth, d.Keyword, d.Relation, d.Videos, d.TotalViews)
	}
	w.Flush()

	fmt.Printf("\nexplored %d nodes, saw %d candidates, reached depth %d in %dms\n",
		result.Stats.NodesExplored, result.Stats.CandidatesSeen,
		result.Stats.MaxDepth, result.Stats.DurationMS)

	if result.Insights != nil {
		fmt.Println("\ninsights:")
		for _, theme := range result.Insights.Themes {
			fmt.Printf("  %s:", theme.Name)
			for _, kw := range theme.Keywords {
				fmt.Printf(" %s", kw)
			}
			fmt.Println()
		}
		for _, obs := range result.Insights.Observations {
			fmt.Printf("  - %s\n", obs)
		}
	}
	return nil
}

func runListRecs(recType, status string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	recs, err := recommend.NewService(db).List(context.Background(), store.RecommendationListOpts{
		Type:   recType,
		Status: status,
	})
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		fmt.Println("no recommendations")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tVALUE\tSTATUS\tSCORE\tSOURCE")
	for _, rec := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%s\n",
			rec.ID, rec.Type, rec.Value, rec.Status, rec.Score, rec.Source)
	}
	return w.Flush()
}

func runRecStatus(id string, accept bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	svc := recommend.NewService(db)
	if accept {
		err = svc.Accept(context.Background(), id)
	} else {
		err = svc.Dismiss(context.Background(), id)
	}
	if err != nil {
		return err
	}

	if accept {
		fmt.Printf("accepted %s\n", id)
	} else {
		fmt.Printf("dismissed %s\n", id)
	}
	return nil
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	srv := server.New(db, buildSynchronizer(cfg, db), buildRunner(cfg, db), recommend.NewService(db), port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	sync := buildSynchronizer(cfg, db)
	alertMgr := buildAlertManager(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(sync, alertMgr, cfg.Sync.ParseInterval(), cfg.Sync.AlertMinScore)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	srv := server.New(db, sync, buildRunner(cfg, db), recommend.NewService(db), port)
	return srv.ListenAndServe()
}
