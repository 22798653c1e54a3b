package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paradise-app/bootstrapper/internal/config"
	"github.com/paradise-app/bootstrapper/internal/logger"
	"github.com/paradise-app/bootstrapper/internal/service/bootstrap"
	"github.com/paradise-app/bootstrapper/internal/version"
)

// errEmptyInstallPath is returned when the operator enters a blank custom path.
var errEmptyInstallPath = errors.New("install path cannot be empty")

var (
	// configPath to the configuration YAML file.
	configPath string

	// manifestURL overrides the configured manifest location.
	manifestURL string

	// installDir overrides the install directory (custom install).
	installDir string

	// logLevel is the textual logging level.
	logLevel string

	// logDir receives per-run log files; empty uses the configured or standard location.
	logDir string

	// dryRun reports what would happen without changing anything.
	dryRun bool

	// noLaunch skips handing off to the installed binary.
	noLaunch bool

	// skipSelfUpdate disables replacing the bootstrapper binary.
	skipSelfUpdate bool

	// interactive prompts for the install mode instead of using flags.
	interactive bool

	// rootCmd represents the base command that runs the update pipeline.
	rootCmd = &cobra.Command{
		Use:   "bootstrapper",
		Short: "Install or update the application from the release manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			closeLogs := setupLogging(ctx)
			defer closeLogs()

			root := installDir
			if interactive && root == "" {
				picked, err := promptInstallDir(cmd)
				if err != nil {
					return err
				}

				root = picked
			}

			options := &bootstrap.Options{
				ConfigPath:         configPath,
				ManifestURL:        manifestURL,
				InstallRoot:        root,
				DryRun:             dryRun,
				LaunchAfterInstall: !noLaunch,
				SkipSelfUpdate:     skipSelfUpdate,
			}

			outcome, err := bootstrap.Run(ctx, options)
			if err != nil {
				return err
			}

			switch outcome.Status {
			case bootstrap.StatusUpToDate:
				fmt.Fprintf(cmd.OutOrStdout(), "already up to date (version %s)\n", outcome.Version)
			case bootstrap.StatusInstalled:
				fmt.Fprintf(cmd.OutOrStdout(), "installed version %s\n", outcome.Version)
			case bootstrap.StatusDryRun:
				fmt.Fprintf(cmd.OutOrStdout(), "dry run: version %s would be installed\n", outcome.Version)
			}

			return nil
		},
	}
)

// Execute runs the bootstrapper CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&manifestURL, "manifest-url", "", "override the manifest URL")
	flags.StringVar(&installDir, "install-dir", "", "custom install directory (default: standard per-user location)")
	flags.StringVar(&logLevel, "log-level", "info", "logging level (debug|info|warn|error|fatal)")
	flags.StringVar(&logDir, "log-dir", "", "directory for per-run log files")
	flags.BoolVar(&dryRun, "dry-run", false, "report what would happen without installing")
	flags.BoolVar(&noLaunch, "no-launch", false, "do not start the application after installing")
	flags.BoolVar(&skipSelfUpdate, "skip-self-update", false, "never replace the bootstrapper binary")
	flags.BoolVarP(&interactive, "interactive", "i", false, "prompt for standard vs. custom install directory")
}

// setupLogging applies the requested level and tees logs into a per-run file.
// File logging failures are not fatal; the console keeps working. The
// returned function flushes and closes the run log file on shutdown.
func setupLogging(ctx context.Context) func() {
	level, _ := logger.ParseLogLevel(logLevel)

	dir := logDir
	if dir == "" {
		if standard, err := config.StandardLogDir(); err == nil {
			dir = standard
		}
	}

	if dir == "" {
		logger.SetLogger(logger.New(level))
		logger.SetLevel(level)

		return func() {}
	}

	sink, file, err := logger.OpenRunLogFile(dir)
	if err != nil {
		logger.SetLogger(logger.New(level))
		logger.SetLevel(level)
		logger.WarnKV(ctx, "Logging to file disabled", "error", err)

		return func() {}
	}

	logger.SetLogger(logger.New(level, sink))
	logger.SetLevel(level)

	return func() {
		//nolint:errcheck // Sync failures on shutdown have nowhere to go.
		_ = logger.Logger().Sync()
		_ = file.Close()
	}
}

// promptInstallDir is the thin interactive wrapper: standard location or a
// custom path typed by the operator. An empty answer keeps the standard one.
func promptInstallDir(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "1) standard install (per-user location)")
	fmt.Fprintln(out, "2) custom path install")
	fmt.Fprint(out, "choice: ")

	reader := bufio.NewReader(cmd.InOrStdin())

	choice, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read choice: %w", err)
	}

	if strings.TrimSpace(choice) != "2" {
		return "", nil
	}

	fmt.Fprint(out, "install path: ")

	path, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read install path: %w", err)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return "", errEmptyInstallPath
	}

	return path, nil
}
