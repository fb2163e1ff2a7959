// Command chrysalis post-processes a compiled web application's asset tree:
// minify, chunk, content-hash, and inject a runtime chunk loader.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/chrysalis-build/chrysalis/internal/app"
	"github.com/chrysalis-build/chrysalis/internal/build"
	"github.com/chrysalis-build/chrysalis/internal/cli"
	"github.com/chrysalis-build/chrysalis/internal/config"
)

var (
	configPath string
	projectDir string
	verbose    bool
	debug      bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "chrysalis",
		Short: "Post-processing build pipeline for compiled web applications",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "chrysalis.toml", "path to configuration file")
	root.PersistentFlags().StringVarP(&projectDir, "project-dir", "p", "", "project directory (defaults to the current directory)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	root.AddCommand(newBuildCommand())
	root.AddCommand(newInitCommand())
	return root
}

func newBuildCommand() *cobra.Command {
	var clean bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the post-processing pipeline over a compiled asset tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cli.NewLogger(verbose, debug)

			fsys := afero.NewOsFs()
			hasConfig, err := afero.Exists(fsys, configPath)
			if err != nil {
				return build.Wrap(build.KindIO, configPath, err)
			}

			var cfg *config.Config
			if hasConfig {
				log.WithField("path", configPath).Info("loading configuration")
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			} else {
				log.Info("no config file found, using defaults")
				cfg = config.Default()
			}
			if clean {
				cfg.Build.CleanBeforeBuild = true
			}

			dir := projectDir
			if dir == "" {
				wd, wdErr := os.Getwd()
				if wdErr != nil {
					return build.Wrap(build.KindIO, ".", wdErr)
				}
				dir = wd
			}
			assetRoot := filepath.Join(dir, "build", "web")

			stats, err := app.Build(fsys, cfg, app.Options{
				AssetRoot: assetRoot,
				DryRun:    dryRun,
			}, log)
			if stats != nil {
				fmt.Println(stats.Summary())
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, "remove the output directory before building")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "scan and validate without mutating the filesystem")
	return cmd
}

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default chrysalis.toml",
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := afero.NewOsFs()
			exists, err := afero.Exists(fsys, configPath)
			if err != nil {
				return build.Wrap(build.KindIO, configPath, err)
			}
			if exists && !force {
				return build.Newf(build.KindConfigInvalid, "%s already exists (use --force to overwrite)", configPath)
			}
			return afero.WriteFile(fsys, configPath, []byte(config.DefaultTOML), 0o644)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}

// exitCodeFor derives the process exit code from the failing stage's error
// kind: success is 0, any failure is non-zero, with the category of the
// first failing stage distinguishing the kind of failure.
func exitCodeFor(err error) int {
	var be *build.Error
	if !errors.As(err, &be) {
		return 1
	}
	switch be.Kind {
	case build.KindConfigInvalid:
		return 2
	case build.KindScanFailed, build.KindIO:
		return 3
	case build.KindMinifyFailed, build.KindChunkFailed, build.KindHashFailed, build.KindInjectFailed:
		return 4
	default:
		return 1
	}
}
