package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paradise-app/bootstrapper/internal/service/packager"
	"github.com/paradise-app/bootstrapper/internal/version"
)

var (
	// outputDir receives release.zip and installer.json.
	outputDir string

	// releaseVersion is stamped into the manifest.
	releaseVersion string

	// baseURL is where the archive will be hosted.
	baseURL string

	// windowsVersionMin is the optional minimum host OS version.
	windowsVersionMin string

	// vcRedistURL marks the VC++ redistributable as required when set.
	vcRedistURL string

	// rootCmd represents the base command that packages a release.
	rootCmd = &cobra.Command{
		Use:   "bootstrap-packager <input-dir>",
		Short: "Package an application tree into a release archive and manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				InputDir:          args[0],
				OutputDir:         outputDir,
				Version:           releaseVersion,
				BaseURL:           baseURL,
				WindowsVersionMin: windowsVersionMin,
				VcRedistURL:       vcRedistURL,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&outputDir, "output", "o", ".", "directory receiving the archive and manifest")
	flags.StringVarP(&releaseVersion, "release-version", "r", "", "semantic version of the release (required)")
	flags.StringVarP(&baseURL, "base-url", "u", "", "URL the archive will be hosted under (required)")
	flags.StringVar(&windowsVersionMin, "windows-version-min", "", "minimum host OS version prerequisite")
	flags.StringVar(&vcRedistURL, "vc-redist-url", "", "VC++ redistributable installer URL (marks it required)")

	_ = rootCmd.MarkFlagRequired("release-version")
	_ = rootCmd.MarkFlagRequired("base-url")
}
