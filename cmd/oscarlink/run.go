package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var terminateModem bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the modem link (default)",
	RunE:  runLink,
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&terminateModem, "terminate-modem", false, "tell the modem to exit when oscarlink stops")
}

func runLink(cmd *cobra.Command, args []string) error {
	station, err := NewStation(cfg, terminateModem)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return station.Run(ctx)
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
