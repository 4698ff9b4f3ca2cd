package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/v0xg/flowcheck/internal/config"
	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/logging"
	"github.com/v0xg/flowcheck/internal/scenario"
)

var (
	configPath string
	driverName string
	baseURL    string
	apiURL     string
	appiumURL  string
	headless   bool
	parallel   int
	trace      bool
	artifacts  string
	verbose    bool

	// exitCode is set by run so deferred cleanup finishes before exiting.
	exitCode int
)

func main() {
	// Load .env file if present (silently ignore if not found)
	config.LoadDotEnv()

	rootCmd := &cobra.Command{
		Use:   "flowcheck",
		Short: "End-to-end checks for the store's login flows and the Wikipedia app",
		Long: `flowcheck drives a browser, the store's account API and an Appium device
through the login and search scenarios, waiting for every element before
acting on it and cleaning up the accounts it creates.

Example:
  flowcheck run 'api/*' ui/login-valid --parallel 2 --trace`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./"+config.DefaultFileName+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	runCmd := &cobra.Command{
		Use:   "run [pattern...]",
		Short: "Run scenarios whose names match the glob patterns (all by default)",
		RunE:  run,
	}
	runCmd.Flags().StringVar(&driverName, "driver", "", "Browser driver: rod, playwright")
	runCmd.Flags().StringVar(&baseURL, "base-url", "", "Store URL")
	runCmd.Flags().StringVar(&apiURL, "api-url", "", "Account API URL")
	runCmd.Flags().StringVar(&appiumURL, "appium-url", "", "Appium server URL; mobile scenarios are skipped without one")
	runCmd.Flags().BoolVar(&headless, "headless", true, "Run the browser without a window")
	runCmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "Scenarios run at once")
	runCmd.Flags().BoolVar(&trace, "trace", false, "Record an annotated GIF of each failing scenario")
	runCmd.Flags().StringVar(&artifacts, "artifacts", "", "Directory for failure screenshots and traces")

	listCmd := &cobra.Command{
		Use:   "list [pattern...]",
		Short: "List scenarios",
		RunE:  list,
	}

	rootCmd.AddCommand(runCmd, listCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Driver = driverName
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURL
	}
	if flags.Changed("api-url") {
		cfg.APIURL = apiURL
	}
	if flags.Changed("appium-url") {
		cfg.Appium.URL = appiumURL
	}
	if flags.Changed("headless") {
		cfg.Headless = headless
	}
	if flags.Changed("parallel") {
		cfg.Parallel = parallel
	}
	if flags.Changed("trace") {
		cfg.Trace = trace
	}
	if flags.Changed("artifacts") {
		cfg.Artifacts = artifacts
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func setupLogging(cfg config.Config) {
	// Validate has already rejected unknown levels.
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logging.Init(level, os.Stderr)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	selected, err := scenario.Select(args...)
	if err != nil {
		return err
	}

	env, err := scenario.NewEnv(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := env.Close(); err != nil {
			logging.WarnErr("CLI", err, "closing drivers")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logVerbose("Starting flowcheck")
	logVerbose("  Store: %s", cfg.BaseURL)
	logVerbose("  API: %s", cfg.APIURL)
	logVerbose("  Driver: %s", cfg.Driver)

	runner := scenario.NewRunner(env)
	runner.OnResult = printResult
	fmt.Printf("→ Running %d scenarios (run %s)\n", len(selected), runner.RunID)

	start := time.Now()
	results := runner.Run(ctx, selected)
	printSummary(results, time.Since(start))

	if scenario.Failed(results) {
		exitCode = 1
	}
	return nil
}

func printResult(res scenario.Result) {
	switch res.Status {
	case scenario.StatusPass:
		fmt.Printf("  ✓ %s (%s)\n", res.Name, res.Duration.Round(time.Millisecond))
	case scenario.StatusSkip:
		fmt.Printf("  - %s skipped: %v\n", res.Name, res.Err)
	default:
		fmt.Printf("  ✗ %s (%s)\n      %v\n", res.Name, res.Duration.Round(time.Millisecond), res.Err)
		for _, path := range res.Artifacts {
			fmt.Printf("      saved %s\n", path)
		}
	}
}

func printSummary(results []scenario.Result, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Scenario", "Status", "Duration", "Reason"})

	counts := map[scenario.Status]int{}
	for _, res := range results {
		counts[res.Status]++
		reason := ""
		if res.Err != nil {
			reason = string(errs.CodeOf(res.Err))
		}
		t.AppendRow(table.Row{res.Name, strings.ToUpper(string(res.Status)), res.Duration.Round(time.Millisecond), reason})
	}
	t.AppendFooter(table.Row{"", "", elapsed.Round(time.Millisecond),
		fmt.Sprintf("%d passed, %d failed, %d skipped",
			counts[scenario.StatusPass], counts[scenario.StatusFail], counts[scenario.StatusSkip])})
	fmt.Println()
	t.Render()
}

func list(cmd *cobra.Command, args []string) error {
	selected, err := scenario.Select(args...)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Scenario", "Kind", "Description"})
	for _, s := range selected {
		t.AppendRow(table.Row{s.Name, s.Kind, s.Description})
	}
	t.Render()
	return nil
}

func logVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}
