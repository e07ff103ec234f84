package main

import (
	"fmt"

	"github.com/MrEthical07/goSession/internal"
	"github.com/spf13/cobra"
)

func secretCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Print a new random signing secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := internal.NewSecret(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "bytes", internal.DefaultSecretBytes, "secret size in bytes")
	return cmd
}
