package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"rpgm-translator/internal/app"
)

var (
	verbose     bool
	logFile     string
	outDir      string
	cfgPath     string
	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "rpgm-translator",
	Short: "Translate RPG Maker games through a translation service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd.OutOrStdout())
			return nil
		}
		return cmd.Help()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commonOptions() app.Options {
	return app.Options{
		ConfigPath: cfgPath,
		Verbose:    verbose,
		LogFile:    logFile,
		OutputDir:  outDir,
	}
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "emit NDJSON events, including HTTP traces")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append log lines to this file")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "output directory (default: output.dir from config)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default: ~/.rpgm-translator/config.yaml)")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "print version information")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(langsCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(versionCmd)
}
