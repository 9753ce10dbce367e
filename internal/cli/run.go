package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/boxhaul-io/boxhaul/internal/config"
	"github.com/boxhaul-io/boxhaul/internal/engine"
	"github.com/boxhaul-io/boxhaul/internal/logging"
	"github.com/boxhaul-io/boxhaul/internal/netbox"
	"github.com/boxhaul-io/boxhaul/internal/snapshot"
)

var (
	runURL      string
	runToken    string
	runDataDir  string
	runDryRun   bool
	runRules    string
	runLogLevel string
	runQuiet    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Migrate a snapshot into the target",
	Long: `Walks the snapshot tier by tier and creates each object in the
target instance. Objects matching the exclusion rules are skipped,
along with everything that depends on them. Re-running against the
same target is safe: existing objects are detected and skipped.`,
	RunE: runMigration,
}

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "NetBox base URL (default $NETBOX_URL)")
	runCmd.Flags().StringVar(&runToken, "token", "", "NetBox API token (default $NETBOX_TOKEN)")
	runCmd.Flags().StringVarP(&runDataDir, "data-dir", "d", ".", "Directory holding the snapshot JSON files")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Walk the full schedule without contacting the target")
	runCmd.Flags().StringVar(&runRules, "rules", "", "YAML file with exclusion rules (default: built-in rules)")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Suppress per-record progress output")
}

func runMigration(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if runURL != "" {
		cfg.URL = runURL
	}
	if runToken != "" {
		cfg.Token = runToken
	}
	if runLogLevel != "" {
		cfg.LogLevel = runLogLevel
	}
	cfg.DataDir = runDataDir
	cfg.DryRun = runDryRun
	if runRules != "" {
		rules, err := config.LoadRules(runRules)
		if err != nil {
			return err
		}
		cfg.Rules = rules
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(cfg.LogLevel)

	store, err := snapshot.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	if n := store.RelationCount(); n > 0 {
		logging.Info("snapshot carries relation tables, not applied during migration", "tables", n)
	}

	var client netbox.Client
	if cfg.DryRun {
		fmt.Println("Dry run: nothing will be sent to the target.")
	} else {
		client, err = netbox.NewHTTPClient(cfg.URL, cfg.Token)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New(store, client, engine.Options{
		DryRun:                cfg.DryRun,
		ExcludedManufacturers: cfg.Rules.Manufacturers,
		ExcludedPlatforms:     cfg.Rules.Platforms,
		OnEvent:               progressPrinter(runQuiet),
	})

	report, runErr := eng.Run(ctx)

	// The summary is printed even when the run was interrupted, so partial
	// progress is never lost from view.
	fmt.Println()
	renderReport(os.Stdout, report)

	if runErr != nil {
		return runErr
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d records failed", report.Failed)
	}
	return nil
}
