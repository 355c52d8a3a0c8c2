package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dbehnke/oscarlink/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	modemsLimit int
	modemsJSON  bool
	modemsPrune time.Duration
)

var modemsCmd = &cobra.Command{
	Use:   "modems",
	Short: "List modems that answered discovery probes",
	Long:  "List the modem sightings recorded in the database, most recently seen first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.GetDatabaseEnabled() {
			return fmt.Errorf("sighting database is disabled, set [Database] Enable=1")
		}

		db, err := database.NewDB(database.Config{
			Path:  cfg.GetDatabasePath(),
			Debug: cfg.GetDatabaseDebug(),
		}, logrus.StandardLogger())
		if err != nil {
			return err
		}
		defer db.Close()

		repo := database.NewSightingRepository(db.GetDB())

		if modemsPrune > 0 {
			removed, err := repo.DeleteOlderThan(time.Now().Add(-modemsPrune))
			if err != nil {
				return fmt.Errorf("failed to prune sightings: %w", err)
			}
			logrus.WithField("removed", removed).Info("Pruned old sightings")
		}

		sightings, err := repo.List(modemsLimit)
		if err != nil {
			return fmt.Errorf("failed to list sightings: %w", err)
		}

		if modemsJSON {
			data, err := json.MarshalIndent(sightings, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		printSightings(cmd.OutOrStdout(), sightings)
		return nil
	},
}

func printSightings(w io.Writer, sightings []database.ModemSighting) {
	if len(sightings) == 0 {
		fmt.Fprintln(w, "No modems seen yet.")
		return
	}

	fmt.Fprintf(w, "%-16s %-20s %8s  %s\n", "ADDRESS", "LAST SEEN", "REPLIES", "DEVICES")
	for _, s := range sightings {
		devices := strings.Join(s.PlaybackList(), ", ")
		if capture := strings.Join(s.CaptureList(), ", "); capture != "" {
			devices += " / " + capture
		}
		fmt.Fprintf(w, "%-16s %-20s %8d  %s\n",
			s.Address, s.LastSeen.Local().Format("2006-01-02 15:04:05"), s.ReplyCount, devices)
	}
}

func init() {
	modemsCmd.Flags().IntVarP(&modemsLimit, "limit", "n", 0, "show at most n modems (0 = all)")
	modemsCmd.Flags().BoolVar(&modemsJSON, "json", false, "print JSON")
	modemsCmd.Flags().DurationVar(&modemsPrune, "prune", 0, "first delete modems not seen for this long")
	rootCmd.AddCommand(modemsCmd)
}
