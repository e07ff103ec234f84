package main

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/payload"
	"github.com/MrEthical07/goSession/store"
	"github.com/MrEthical07/goSession/store/backends"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func inspectCmd(g *globalFlags) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "inspect <identifier>",
		Short: "Print the stored payload of a session",
		Long: `inspect verifies the identifier, reads its record from the configured
store and prints it as JSON. --path selects one field using gjson syntax,
e.g. --path cookie.expires or --path passport.user.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := g.handler(cmd)
			if err != nil {
				return err
			}
			defer h.Close()

			p, err := h.Read(cmd.Context(), unescape(args[0]))
			if err != nil {
				return err
			}
			data, err := payload.ToStore(p)
			if err != nil {
				return err
			}

			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			res := gjson.GetBytes(data, path)
			if !res.Exists() {
				return fmt.Errorf("path %q not found", path)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "gjson path of a single field")
	return cmd
}

func sweepCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired records from a SQL backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			st, err := backends.Open(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			exp, ok := st.(store.Expirer)
			if !ok {
				return errors.New("backend " + cfg.Store.Backend + " expires records itself")
			}
			n, err := exp.DeleteExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired sessions\n", n)
			return nil
		},
	}
}
