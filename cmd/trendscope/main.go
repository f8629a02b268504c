package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trendscope",
		Short: "Track short-video keyword trends and explore the keyword space",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(keywordsCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(heatmapCmd())
	root.AddCommand(exploreCmd())
	root.AddCommand(recsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Manage tracked keywords",
	}

	var (
		displayName string
		color       string
		priority    int
		userID      string
	)
	add := &cobra.Command{
		Use:   "add <keyword>",
		Short: "Track a new keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddKeyword(args[0], displayName, color, priority, userID)
		},
	}
	add.Flags().StringVar(&displayName, "name", "", "display name")
	add.Flags().StringVar(&color, "color", "", "display color")
	add.Flags().IntVar(&priority, "priority", 0, "sort priority")
	add.Flags().StringVar(&userID, "user", "", "owning user id")

	var listUser string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tracked keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListKeywords(listUser)
		},
	}
	list.Flags().StringVar(&listUser, "user", "", "owning user id")

	cmd.AddCommand(add)
	cmd.AddCommand(list)
	return cmd
}

func syncCmd() *cobra.Command {
	var (
		ids        []int64
		userID     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch fresh video data and write today's snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(userID, ids, jsonOutput)
		},
	}

	cmd.Flags().Int64SliceVar(&ids, "keyword", nil, "specific keyword ids to sync")
	cmd.Flags().StringVar(&userID, "user", "", "owning user id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func heatmapCmd() *cobra.Command {
	var (
		days       int
		metric     string
		userID     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Show the keyword-by-date score grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeatmap(userID, days, metric, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "number of days")
	cmd.Flags().StringVar(&metric, "metric", "trend", "metric to display (trend, virality, growth)")
	cmd.Flags().StringVar(&userID, "user", "", "owning user id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func exploreCmd() *cobra.Command {
	var (
		depth        int
		strategy     string
		excludeKnown bool
		withInsights bool
		saveRecs     bool
		userID       string
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "explore <seed>",
		Short: "Discover related keywords from a seed term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore(args[0], depth, strategy, excludeKnown, withInsights, saveRecs, userID, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 2, "exploration depth (1-3)")
	cmd.Flags().StringVar(&strategy, "strategy", "balanced", "candidate strategy (novelty, popularity, balanced)")
	cmd.Flags().BoolVar(&excludeKnown, "exclude-known", true, "drop already-tracked keywords from discoveries")
	cmd.Flags().BoolVar(&withInsights, "insights", false, "summarize discoveries with the LLM")
	cmd.Flags().BoolVar(&saveRecs, "save", false, "save discoveries as pending recommendations")
	cmd.Flags().StringVar(&userID, "user", "", "owning user id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func recsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recs",
		Short: "Manage keyword and account recommendations",
	}

	var (
		recType string
		status  string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListRecs(recType, status)
		},
	}
	list.Flags().StringVar(&recType, "type", "", "filter by type (keyword, account)")
	list.Flags().StringVar(&status, "status", "", "filter by status (pending, accepted, dismissed)")

	accept := &cobra.Command{
		Use:   "accept <id>",
		Short: "Accept a pending recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecStatus(args[0], true)
		},
	}
	dismiss := &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss a pending recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecStatus(args[0], false)
		},
	}

	cmd.AddCommand(list)
	cmd.AddCommand(accept)
	cmd.AddCommand(dismiss)
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with daily sync scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
