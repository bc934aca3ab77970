package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/app-packager/internal/logger"
	"github.com/oshokin/app-packager/internal/service/bundler"
	"github.com/oshokin/app-packager/internal/version"
)

var (
	// manifestPath is an explicit manifest file path.
	manifestPath string
	// projectPath is the directory searched for a manifest.
	projectPath string
	// archiveFlag forces a zip instead of the platform default.
	archiveFlag bool
	// dmgFlag forces a disk image; only valid on macOS.
	dmgFlag bool
	// noBuildFlag skips the manifest build commands.
	noBuildFlag bool
	// verboseFlag enables debug logging, including tool output.
	verboseFlag bool

	// rootCmd represents the base command that packages the application.
	rootCmd = &cobra.Command{
		Use:   "app-packager",
		Short: "Package a desktop application into a distributable artifact",
		Long: `Packages a desktop application into the distributable format native to the
target platform: a compressed disk image on macOS, a tar.gz on Linux and a
zip on Windows.

The packaging manifest (packager.toml or packager.yaml) names the files to
stage, the build commands to run first, the artifact name template and the
optional disk image window layout. Relative paths resolve against the
manifest's directory.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if verboseFlag {
				logger.SetLevel(zapcore.DebugLevel)
			}

			options := &bundler.Options{
				ManifestPath: manifestPath,
				Path:         projectPath,
				Archive:      archiveFlag,
				DMG:          dmgFlag,
				NoBuild:      noBuildFlag,
			}

			return bundler.Run(ctx, options)
		},
	}
)

// Execute runs the app-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "path to the packaging manifest file")
	rootCmd.Flags().StringVarP(&projectPath, "path", "p", ".", "project directory searched for a manifest")
	rootCmd.Flags().BoolVarP(&archiveFlag, "archive", "a", false, "produce a zip archive instead of the platform default")
	rootCmd.Flags().BoolVar(&dmgFlag, "dmg", false, "produce a disk image (macOS only)")
	rootCmd.Flags().BoolVar(&noBuildFlag, "no-build", false, "skip the manifest build commands")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
}
