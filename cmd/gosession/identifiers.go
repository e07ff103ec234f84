package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/sid"
	"github.com/spf13/cobra"
)

func generateCmd(g *globalFlags) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate signed session identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return errors.New("--count must be > 0")
			}
			codec, _, err := g.codec()
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				id, err := codec.Generate()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of identifiers")
	return cmd
}

func signCmd(g *globalFlags) *cobra.Command {
	var encode bool

	cmd := &cobra.Command{
		Use:   "sign <raw-id>",
		Short: "Sign a raw session id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, _, err := g.codec()
			if err != nil {
				return err
			}
			if strings.Contains(args[0], ".") {
				return fmt.Errorf("%w: raw id must not contain '.'", goSession.ErrIdentifierMalformed)
			}
			id := codec.Sign(args[0])
			if encode {
				id = url.QueryEscape(id)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&encode, "cookie", false, "print the percent-encoded cookie value")
	return cmd
}

func verifyCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <identifier>",
		Short: "Verify an identifier's signature and print its raw id",
		Long: `verify accepts the identifier as stored in the cookie, percent-encoded
("s%3A...") or not. It exits non-zero when the signature does not match.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, _, err := g.codec()
			if err != nil {
				return err
			}
			identifier := unescape(args[0])
			if _, signed := sid.Parse(identifier); !signed {
				return fmt.Errorf("%w: not a signed identifier", goSession.ErrIdentifierMalformed)
			}
			if !codec.Verify(identifier) {
				return goSession.ErrIdentifierTampered
			}
			fmt.Fprintln(cmd.OutOrStdout(), sid.ExtractRawID(identifier))
			return nil
		},
	}
}

func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
