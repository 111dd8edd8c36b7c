package main

import (
	"fmt"

	"propcheck"
	"propcheck/codec"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "propcheck",
		Short:         "Inspect the data and parameters of property checks",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newDecodeCommand(), newConfigCommand())
	return rootCmd
}

func newDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [data]",
		Short: "Print the seed, size hint and raw values of serialized rechecking data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := codec.DecodeRecord(args[0])
			if err != nil {
				return err
			}
			values, err := codec.ReadAll(record.Body)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seed: %d\n", record.Seed)
			fmt.Fprintf(out, "sizeHint: %d\n", record.SizeHint)
			fmt.Fprintf(out, "values: %v\n", values)
			return nil
		},
	}
}

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config [file]",
		Short: "Validate a YAML parameter file and print the effective parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := propcheck.LoadConfig(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.String())
			return nil
		},
	}
}
