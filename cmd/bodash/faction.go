package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bodash/internal/client"
	"bodash/internal/logging"
)

var factionCmd = &cobra.Command{
	Use:   "faction <name>",
	Short: "Switch the backend's active faction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.BackendURL, cfg.RequestTimeout, logging.FromContext(cmd.Context()))
		res, err := c.Faction(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "active faction %s (%s units)\n", res.Faction, humanize.Comma(int64(res.UnitCount)))
		return nil
	},
}
