// Command sitecc generates a static site by preprocessing a tree of HTML
// files with a C-style macro preprocessor.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbrandt/sitecc/pkg/config"
	"github.com/kbrandt/sitecc/pkg/generator"
	"github.com/kbrandt/sitecc/pkg/watcher"
)

var version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sitecc",
		Short:         "sitecc generates a static site by preprocessing HTML with a C-style macro preprocessor",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.AddCommand(newBuildCmd(out, errOut))
	rootCmd.AddCommand(newWatchCmd(out, errOut))
	rootCmd.AddCommand(newVersionCmd(out))

	return rootCmd
}

// resolvedConfig loads sitecc.yaml (if present) at configPath and applies
// any non-empty CLI flag overrides on top of it.
func resolvedConfig(configPath, sourceFlag, outputFlag string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if sourceFlag != "" {
		cfg.Source = sourceFlag
	}
	if outputFlag != "" {
		cfg.Output = outputFlag
	}
	return cfg, nil
}

func newBuildCmd(out, errOut io.Writer) *cobra.Command {
	var sourceFlag, outputFlag, configFlag string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run one full build",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolvedConfig(configFlag, sourceFlag, outputFlag)
			if err != nil {
				return err
			}

			report, err := generator.Generate(cmd.Context(), generator.Options{
				Source: cfg.Source,
				Output: cfg.Output,
				Ignore: cfg.Ignore,
			})
			if err != nil {
				return err
			}
			printReport(out, report)
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceFlag, "source", "", "Source directory (overrides sitecc.yaml)")
	cmd.Flags().StringVar(&outputFlag, "output", "", "Output directory (overrides sitecc.yaml)")
	cmd.Flags().StringVar(&configFlag, "config", "sitecc.yaml", "Path to sitecc.yaml")
	return cmd
}

func newWatchCmd(out, errOut io.Writer) *cobra.Command {
	var sourceFlag, outputFlag, configFlag string
	var pollFlag time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run an initial build, then rebuild on every change until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolvedConfig(configFlag, sourceFlag, outputFlag)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := watcher.New(watcher.Options{
				Source:       cfg.Source,
				Output:       cfg.Output,
				Ignore:       cfg.Ignore,
				PollInterval: pollFlag,
				OnBuild: func(report generator.Report, err error) {
					if err != nil {
						fmt.Fprintf(errOut, "sitecc: build error: %v\n", err)
						return
					}
					printReport(out, report)
				},
			})
			return w.Watch(ctx)
		},
	}
	cmd.Flags().StringVar(&sourceFlag, "source", "", "Source directory (overrides sitecc.yaml)")
	cmd.Flags().StringVar(&outputFlag, "output", "", "Output directory (overrides sitecc.yaml)")
	cmd.Flags().StringVar(&configFlag, "config", "sitecc.yaml", "Path to sitecc.yaml")
	cmd.Flags().DurationVar(&pollFlag, "poll", 0, "Polling interval (default 300ms)")
	return cmd
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sitecc version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(out, "sitecc %s\n", version)
			return nil
		},
	}
}

func printReport(out io.Writer, report generator.Report) {
	fmt.Fprintf(out, "sitecc: processed %d, copied %d, skipped %d\n",
		report.Processed, report.Copied, report.Skipped)
	for _, fe := range report.Errors {
		fmt.Fprintf(out, "Error processing %s:\n  %s\n", fe.Path, fe.Err)
	}
}
