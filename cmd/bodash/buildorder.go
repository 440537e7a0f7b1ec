package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"bodash/internal/buildorder"
	"bodash/internal/tui"
)

var buildOrderCmd = &cobra.Command{
	Use:     "buildorder",
	Aliases: []string{"bo"},
	Short:   "Work with local build order files",
}

var boListCmd = &cobra.Command{
	Use:   "list <dir>",
	Short: "List build order files in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := buildorder.List(args[0])
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", f.Stem, f.Filename)
		}
		return nil
	},
}

var boShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the queues of a build order file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bo, err := buildorder.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.BuildOrderReport(bo, nil))
		return nil
	},
}

var boJSONCmd = &cobra.Command{
	Use:   "json <file> [out]",
	Short: "Convert a build order file to JSON",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bo, err := buildorder.Load(args[0])
		if err != nil {
			return err
		}
		out := buildorder.Stem(args[0]) + ".json"
		if len(args) == 2 {
			out = args[1]
		} else {
			out = filepath.Join(filepath.Dir(args[0]), out)
		}
		if err := buildorder.ExportJSON(out, bo); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "wrote", out)
		return nil
	},
}

var boNormalizeCmd = &cobra.Command{
	Use:   "fmt <file>",
	Short: "Rewrite a build order file in canonical key order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bo, err := buildorder.Load(args[0])
		if err != nil {
			return err
		}
		return buildorder.Save(args[0], bo)
	},
}

func init() {
	buildOrderCmd.AddCommand(boListCmd, boShowCmd, boJSONCmd, boNormalizeCmd)
}
