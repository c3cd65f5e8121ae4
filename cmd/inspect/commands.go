package main

import (
	"fmt"

	"github.com/samuelfneumann/batchlearn/serial"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	// Registered types that --load can reconstruct
	_ "github.com/samuelfneumann/batchlearn/agent/batch/fqi"
	_ "github.com/samuelfneumann/batchlearn/agent/policy"
	_ "github.com/samuelfneumann/batchlearn/approximator"
)

// newRootCmd returns the inspect command
func newRootCmd() *cobra.Command {
	var load, verbose bool

	cmd := &cobra.Command{
		Use:   "inspect archive [archive ...]",
		Short: "Print the contents of agent archives",
		Long: "Print the type of every object stored in each archive, " +
			"along with the codec and size of each of its declared " +
			"attributes. Attributes that were not saved are reported " +
			"as missing.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := inspect(cmd, path, load); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&load, "load", "l", false,
		"also reconstruct each archive to check that it loads")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"log every entry read")
	return cmd
}

// inspect prints the manifest of the archive at path
func inspect(cmd *cobra.Command, path string, load bool) error {
	m, err := serial.Inspect(path)
	if err != nil {
		return fmt.Errorf("inspect %v: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%v:\n", path)
	if err := m.Print(out); err != nil {
		return err
	}

	if load {
		obj, err := serial.Load(path)
		if err != nil {
			return fmt.Errorf("load %v: %w", path, err)
		}
		fmt.Fprintf(out, "loaded %T\n", obj)
	}
	return nil
}
