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
		Use:   "aggregator",
		Short: "Group news headlines into events, score them, and summarize them",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(ingestCmd())
	root.AddCommand(groupCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(generateCmd())
	root.AddCommand(eventsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Fetch all configured feeds and store new items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest()
		},
	}
}

func groupCmd() *cobra.Command {
	var (
		hoursWindow int
		threshold   float64
		maxItems    int
	)

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Group recent items into events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroup(hoursWindow, threshold, maxItems)
		},
	}

	cmd.Flags().IntVar(&hoursWindow, "hours-window", 0, "clustering time window in hours (default: from config)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "similarity threshold (default: from config)")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "max recent items to consider (default: from config)")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score recent events for breaking news and duplicate coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "max events to analyze (default: from config)")
	return cmd
}

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <event-id>",
		Short: "Generate a canonical AI summary for one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(args[0])
		},
	}
}

func eventsCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(jsonOutput, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 20, "max events to show")
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
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
