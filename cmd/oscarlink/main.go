package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dbehnke/oscarlink/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const VERSION = "1.0.0-go"

var (
	// Global flags
	cfgFile string
	verbose bool

	// Set during PersistentPreRun
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "oscarlink",
	Short: "UDP link to an hsmodem satellite data modem",
	Long: `oscarlink finds an hsmodem instance on the local network, keeps its
address current through periodic discovery probes and carries control,
payload, spectrum and constellation traffic between the modem and the
application.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.NewConfig(cfgFile)
		if _, err := os.Stat(cfgFile); err == nil {
			if err := cfg.Load(); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
		} else if cmd.Flags().Changed("config") {
			return fmt.Errorf("config file %s: %w", cfgFile, err)
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		return setupLogging(cfg.GetLogLevel(), verbose)
	},
	// Running without a subcommand starts the link
	RunE: runLink,
}

func setupLogging(level string, verbose bool) error {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	logrus.SetOutput(os.Stderr)

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
		return nil
	}

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(lvl)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "oscarlink.ini", "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	addRunFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
